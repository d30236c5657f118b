package inform

import (
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
)

//ReadSMTPConfig reads the smtp server config from viper
func ReadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     cmdapp.Config.GetString("smtp.host"),
		Port:     cmdapp.Config.GetInt("smtp.port"),
		Username: cmdapp.Config.GetString("smtp.username"),
		Password: cmdapp.Config.GetString("smtp.password"),
	}
}

//ReadMailConfig reads the urgent email template config from viper
func ReadMailConfig() MailConfig {
	return MailConfig{
		From:    cmdapp.Config.GetString("mail.from"),
		To:      cmdapp.Config.GetStringSlice("mail.to"),
		Subject: cmdapp.Config.GetString("mail.subject"),
		Text:    cmdapp.Config.GetString("mail.text"),
		URL:     cmdapp.Config.GetString("mail.url"),
	}
}
