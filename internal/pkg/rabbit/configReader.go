package rabbit

import (
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
)

//ReadConfig reads the message broker config from viper
func ReadConfig() Config {
	return Config{
		URL:         cmdapp.Config.GetString("messageServer.url"),
		User:        cmdapp.Config.GetString("messageServer.user"),
		Pass:        cmdapp.Config.GetString("messageServer.pass"),
		QueuePrefix: cmdapp.Config.GetString("messageServer.queuePrefix"),
	}
}
