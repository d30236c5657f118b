package transcription

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/loader"
	"bitbucket.org/localbzz/portalgo/internal/pkg/submission"
	"github.com/pkg/errors"
)

//DefaultTimeout bounds the whole job
const DefaultTimeout = 60 * time.Second

//Job to transcribe the record's voice memo
type Job struct {
	RecordID string
	AudioURL string
}

//Result of the finished job
type Result struct {
	RecordID       string
	Transcription  string
	UpdatedContent string
}

//Downloader fetches the audio
type Downloader interface {
	Load(ctx context.Context, url string) (*loader.Audio, error)
}

//Transcriber converts speech to text
type Transcriber interface {
	Transcribe(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}

//Records reads and updates the submission record
type Records interface {
	Get(ctx context.Context, id string) (*submission.Record, error)
	Update(ctx context.Context, id string, upd submission.RecordUpdate) error
}

//Locker guards the record from concurrent jobs and keeps the job outcome
type Locker interface {
	Lock(ctx context.Context, id string) error
	Unlock(ctx context.Context, id string, completed bool, errText string) error
}

//Config of the worker
type Config struct {
	Timeout time.Duration
	//PersistFailure marks the record Failed when the job gives up before the write back
	PersistFailure bool
}

//Worker runs the transcription jobs
type Worker struct {
	Downloader  Downloader
	Transcriber Transcriber
	Records     Records
	Locker      Locker
	Config      Config
}

//NewWorker creates the worker, nil locker disables the locking
func NewWorker(d Downloader, t Transcriber, r Records, l Locker, c Config) *Worker {
	if l == nil {
		l = NoopLocker{}
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return &Worker{Downloader: d, Transcriber: t, Records: r, Locker: l, Config: c}
}

//Validate checks that all the worker dependencies are configured
func (w *Worker) Validate() error {
	if w.Downloader == nil {
		return apperr.Configuration("Audio downloader not configured")
	}
	if w.Transcriber == nil {
		return apperr.Configuration("Speech to text service not configured")
	}
	if w.Records == nil {
		return apperr.Configuration("Datastore not configured")
	}
	return nil
}

//Process downloads, transcribes the audio and merges the transcript into the record content.
//The job is self contained: it does not depend on the request that dispatched it
func (w *Worker) Process(ctx context.Context, job *Job) (*Result, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if job == nil || strings.TrimSpace(job.RecordID) == "" || strings.TrimSpace(job.AudioURL) == "" {
		return nil, apperr.Validation("Record ID and voice memo URL are required")
	}
	ctx, cancel := context.WithTimeout(ctx, w.Config.Timeout)
	defer cancel()

	log := cmdapp.Log.WithField("record", job.RecordID)
	if err := w.Locker.Lock(ctx, job.RecordID); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			log.Warn(err)
			observe(outcomeSkipped)
		} else {
			log.Error(err)
			observe(outcomeFailed)
		}
		return nil, err
	}
	res, err := w.run(ctx, job)
	completed, errText := true, ""
	switch {
	case err == nil:
		log.Info("Transcription completed")
		observe(outcomeCompleted)
	case apperr.Is(err, apperr.KindConflict):
		// record was completed by an earlier job
		log.Warn(err)
		observe(outcomeSkipped)
	default:
		completed, errText = false, err.Error()
		log.Error(err)
		observe(outcomeFailed)
	}
	// the job context may be already expired here
	uctx, ucancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ucancel()
	if uerr := w.Locker.Unlock(uctx, job.RecordID, completed, errText); uerr != nil {
		log.Error(errors.Wrap(uerr, "Can't save job outcome"))
	}
	return res, err
}

func (w *Worker) run(ctx context.Context, job *Job) (*Result, error) {
	audio, err := w.Downloader.Load(ctx, job.AudioURL)
	if err != nil {
		return nil, w.fail(job.RecordID, apperr.Upstream(err, "Failed to download audio file"))
	}
	txt, err := w.Transcriber.Transcribe(ctx, audio.Name, audio.ContentType, audio.Data)
	if err != nil {
		return nil, w.fail(job.RecordID, upstream(err, "Failed to transcribe voice memo"))
	}
	rec, err := w.Records.Get(ctx, job.RecordID)
	if err != nil {
		return nil, w.fail(job.RecordID, upstream(err, "Failed to fetch current record"))
	}
	if rec.TranscriptionStatus == submission.TranscriptionCompleted && !submission.HasPlaceholder(rec.Content) {
		return nil, apperr.Conflict("Transcription already completed")
	}
	content := submission.MergeTranscript(rec.Content, txt)
	err = w.Records.Update(ctx, job.RecordID, submission.RecordUpdate{Content: &content,
		TranscriptionStatus: submission.TranscriptionCompleted})
	if err != nil {
		// status stays Pending
		return nil, upstream(err, "Failed to update record with transcription")
	}
	return &Result{RecordID: job.RecordID, Transcription: txt, UpdatedContent: content}, nil
}

func (w *Worker) fail(id string, err error) error {
	if !w.Config.PersistFailure {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if uerr := w.Records.Update(ctx, id, submission.RecordUpdate{TranscriptionStatus: submission.TranscriptionFailed}); uerr != nil {
		cmdapp.Log.Error(errors.Wrapf(uerr, "Can't mark %s as failed", id))
	}
	return err
}

func upstream(err error, msg string) error {
	if apperr.KindOf(err) != apperr.KindUnknown {
		return errors.Wrap(err, msg)
	}
	return apperr.Upstream(err, msg)
}

//NoopLocker does not lock, used when no lock storage is configured
type NoopLocker struct{}

//Lock does nothing
func (NoopLocker) Lock(ctx context.Context, id string) error { return nil }

//Unlock does nothing
func (NoopLocker) Unlock(ctx context.Context, id string, completed bool, errText string) error {
	return nil
}
