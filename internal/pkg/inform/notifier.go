package inform

import (
	"context"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/submission"
	"github.com/jordan-wright/email"
	"github.com/pkg/errors"
)

//EmailSender sends the prepared email
type EmailSender interface {
	Send(email *email.Email) error
}

//EmailNotifier informs the team about urgent requests by email
type EmailNotifier struct {
	maker  *SimpleEmailMaker
	sender EmailSender
	now    func() time.Time
}

//NewEmailNotifier creates the notifier with the smtp pool
func NewEmailNotifier(smtpCfg SMTPConfig, mailCfg MailConfig, location *time.Location) (*EmailNotifier, error) {
	maker, err := newSimpleEmailMaker(mailCfg, location)
	if err != nil {
		return nil, errors.Wrap(err, "Can't init email maker")
	}
	sender, err := newSimpleEmailSender(smtpCfg)
	if err != nil {
		return nil, errors.Wrap(err, "Can't init email sender")
	}
	return &EmailNotifier{maker: maker, sender: sender, now: time.Now}, nil
}

//Notify sends the email about the record, the sending happens in the background
func (n *EmailNotifier) Notify(ctx context.Context, draft *submission.Draft, recordID string) error {
	e := n.maker.Make(draft, recordID, n.now())
	go func() {
		if err := n.sender.Send(e); err != nil {
			cmdapp.Log.Error(errors.Wrapf(err, "Can't send email for %s", recordID))
			return
		}
		cmdapp.Log.Infof("Sent urgent email for %s", recordID)
	}()
	return nil
}
