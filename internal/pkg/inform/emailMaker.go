package inform

import (
	"strings"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/pkg/submission"
	"github.com/badoux/checkmail"
	"github.com/jordan-wright/email"
	"github.com/pkg/errors"
)

//MailConfig keeps the urgent mail settings.
//Subject and Text may contain {{ID}}, {{TENANT}}, {{TITLE}}, {{CONTENT}}, {{URL}} and {{DATE}}
type MailConfig struct {
	From    string
	To      []string
	Subject string
	Text    string
	//URL of the record in the datastore UI, may contain {{ID}}
	URL string
}

const (
	defaultSubject = "URGENT request from {{TENANT}}: {{TITLE}}"
	defaultText    = "Urgent request {{ID}} from {{TENANT}} at {{DATE}}\n\n{{CONTENT}}\n\n{{URL}}"
	voiceMemoTitle = "Voice memo"
)

//SimpleEmailMaker prepares the urgent request email
type SimpleEmailMaker struct {
	cfg      MailConfig
	location *time.Location
}

func newSimpleEmailMaker(cfg MailConfig, location *time.Location) (*SimpleEmailMaker, error) {
	if cfg.From == "" {
		return nil, errors.New("No mail sender")
	}
	if len(cfg.To) == 0 {
		return nil, errors.New("No mail recipients")
	}
	for _, m := range append([]string{cfg.From}, cfg.To...) {
		if err := checkmail.ValidateFormat(m); err != nil {
			return nil, errors.Wrapf(err, "Wrong email %s", m)
		}
	}
	if cfg.Subject == "" {
		cfg.Subject = defaultSubject
	}
	if cfg.Text == "" {
		cfg.Text = defaultText
	}
	if location == nil {
		location = time.UTC
	}
	return &SimpleEmailMaker{cfg: cfg, location: location}, nil
}

//Make prepares the email for the record
func (maker *SimpleEmailMaker) Make(draft *submission.Draft, id string, at time.Time) *email.Email {
	r := email.NewEmail()
	r.From = maker.cfg.From
	r.To = append([]string(nil), maker.cfg.To...)
	r.Subject = maker.fill(maker.cfg.Subject, draft, id, at)
	r.Text = []byte(maker.fill(maker.cfg.Text, draft, id, at))
	return r
}

func (maker *SimpleEmailMaker) fill(s string, draft *submission.Draft, id string, at time.Time) string {
	title := draft.Title
	if title == "" {
		title = voiceMemoTitle
	}
	url := strings.Replace(maker.cfg.URL, "{{ID}}", id, -1)
	return strings.NewReplacer(
		"{{ID}}", id,
		"{{TENANT}}", draft.Tenant,
		"{{TITLE}}", title,
		"{{CONTENT}}", draft.Content,
		"{{URL}}", url,
		"{{DATE}}", at.In(maker.location).Format("2006-01-02 15:04:05"),
	).Replace(s)
}
