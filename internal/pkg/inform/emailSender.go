package inform

import (
	"net/smtp"
	"strconv"
	"time"

	"github.com/jordan-wright/email"
	"github.com/pkg/errors"
)

//SMTPConfig of the mail server
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

//SimpleEmailSender sends emails using the connection pool
type SimpleEmailSender struct {
	sendPool *email.Pool
	timeout  time.Duration
}

func newSimpleEmailSender(c SMTPConfig) (*SimpleEmailSender, error) {
	if c.Host == "" {
		return nil, errors.New("No smtp host")
	}
	if c.Port == 0 {
		c.Port = 587
	}
	var auth smtp.Auth
	if c.Username != "" {
		auth = smtp.PlainAuth("", c.Username, c.Password, c.Host)
	}
	pool, err := email.NewPool(c.Host+":"+strconv.Itoa(c.Port), 1, auth)
	if err != nil {
		return nil, errors.Wrap(err, "Can't init smtp pool")
	}
	return &SimpleEmailSender{sendPool: pool, timeout: 10 * time.Second}, nil
}

//Send sends the email
func (s *SimpleEmailSender) Send(email *email.Email) error {
	return s.sendPool.Send(email, s.timeout)
}

//Close closes the pool
func (s *SimpleEmailSender) Close() {
	s.sendPool.Close()
}
