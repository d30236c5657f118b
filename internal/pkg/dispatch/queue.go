package dispatch

import (
	"context"

	"bitbucket.org/localbzz/portalgo/internal/pkg/messages"
	"github.com/pkg/errors"
)

//QueueDispatcher puts the job into the broker queue for the transcription worker
type QueueDispatcher struct {
	Sender messages.Sender
	Queue  string
}

//NewQueueDispatcher creates the dispatcher
func NewQueueDispatcher(sender messages.Sender) (*QueueDispatcher, error) {
	if sender == nil {
		return nil, errors.New("No message sender")
	}
	return &QueueDispatcher{Sender: sender, Queue: messages.Transcribe}, nil
}

//Dispatch sends the message
func (d *QueueDispatcher) Dispatch(ctx context.Context, recordID, audioURL string) error {
	return d.Sender.Send(messages.NewTranscriptionMessage(recordID, audioURL), d.Queue)
}
