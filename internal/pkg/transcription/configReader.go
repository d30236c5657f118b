package transcription

import (
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
)

//ReadConfig reads the job config from viper
func ReadConfig() Config {
	cmdapp.Config.SetDefault("transcription.persistFailure", true)
	return Config{
		Timeout:        cmdapp.DurationOr("transcription.timeout", DefaultTimeout),
		PersistFailure: cmdapp.Config.GetBool("transcription.persistFailure"),
	}
}
