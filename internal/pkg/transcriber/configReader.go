package transcriber

import (
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
)

//ReadConfig reads the speech to text config from viper
func ReadConfig() Config {
	return Config{
		URL:      cmdapp.Config.GetString("stt.url"),
		Key:      cmdapp.Config.GetString("stt.key"),
		Model:    cmdapp.Config.GetString("stt.model"),
		Language: cmdapp.Config.GetString("stt.language"),
		Timeout:  cmdapp.Config.GetDuration("stt.timeout"),
	}
}
