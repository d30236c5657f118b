package transcriber

import (
	"context"
	"encoding/json"

	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/messages"
	"bitbucket.org/localbzz/portalgo/internal/pkg/transcription"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

//JobProcessor runs the transcription job
type JobProcessor interface {
	Process(ctx context.Context, job *transcription.Job) (*transcription.Result, error)
}

// ServiceData keeps data required for service work
type ServiceData struct {
	Worker JobProcessor
	WorkCh <-chan amqp.Delivery
}

//StartWorkerService starts the queue listener
// return channel to track the finish event
//
// to wait sync for the service to finish:
// fc, err := StartWorkerService(data)
// handle err
// <-fc // waits for finish
func StartWorkerService(data *ServiceData) (<-chan bool, error) {
	cmdapp.Log.Infof("Starting listen for messages")
	if data.Worker == nil {
		return nil, errors.New("No worker")
	}
	if data.WorkCh == nil {
		return nil, errors.New("No work channel")
	}
	fc := make(chan bool)
	go listenQueue(data, fc)
	return fc, nil
}

func listenQueue(data *ServiceData, fc chan<- bool) {
	for d := range data.WorkCh {
		err := processMsg(&d, data)
		if err != nil {
			cmdapp.Log.Error("Message error ", err)
			cmdapp.LogIf(d.Nack(false, false))
			continue
		}
		cmdapp.LogIf(d.Ack(false))
	}
	cmdapp.Log.Infof("Stopped listening queue")
	fc <- true
}

// processMsg runs the job once, a failed job is not requeued
func processMsg(d *amqp.Delivery, data *ServiceData) error {
	var message messages.TranscriptionMessage
	if err := json.Unmarshal(d.Body, &message); err != nil {
		return errors.Wrap(err, "Can't unmarshal message "+string(d.Body))
	}
	if !message.Valid() {
		return errors.Errorf("Wrong message %s", string(d.Body))
	}
	res, err := data.Worker.Process(context.Background(),
		&transcription.Job{RecordID: message.RecordID, AudioURL: message.AttachmentURL})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			cmdapp.Log.Warnf("Skip %s: %v", message.RecordID, err)
			return nil
		}
		return err
	}
	cmdapp.Log.Infof("Transcribed %s, %d chars", res.RecordID, len(res.Transcription))
	return nil
}
