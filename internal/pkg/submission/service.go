package submission

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

//AttachmentStore uploads the file and returns durable url
type AttachmentStore interface {
	Upload(ctx context.Context, data io.Reader, contentType, pathHint string) (string, error)
}

//RecordWriter creates the record in the datastore
type RecordWriter interface {
	Create(ctx context.Context, draft *Draft) (string, error)
}

//Dispatcher triggers the transcription job without waiting for it
type Dispatcher interface {
	Dispatch(ctx context.Context, recordID, audioURL string) error
}

//Notifier informs the team about created record
type Notifier interface {
	Notify(ctx context.Context, draft *Draft, recordID string) error
}

//Result of the submission
type Result struct {
	RecordID               string
	Tenant                 string
	Type                   string
	Category               string
	Priority               string
	TranscriptionTriggered bool
}

//Service runs the submission flow: normalize, upload, create, dispatch, notify
type Service struct {
	Store      AttachmentStore
	Writer     RecordWriter
	Dispatcher Dispatcher
	Notifier   Notifier
	Now        func() time.Time
}

//NewService creates service, store, dispatcher and notifier may be nil
func NewService(store AttachmentStore, writer RecordWriter, dispatcher Dispatcher, notifier Notifier) (*Service, error) {
	if writer == nil {
		return nil, errors.New("No record writer")
	}
	return &Service{Store: store, Writer: writer, Dispatcher: dispatcher, Notifier: notifier, Now: time.Now}, nil
}

//TranscriptionEnabled reports if voice memos will be dispatched for transcription
func (s *Service) TranscriptionEnabled() bool {
	return s.Dispatcher != nil
}

//Submit validates and stores the submission.
//Only validation and record creation errors are returned, everything after the record write is best effort
func (s *Service) Submit(ctx context.Context, in *Input) (*Result, error) {
	draft, err := Normalize(in)
	if err != nil {
		return nil, err
	}
	log := cmdapp.Log.WithField("tenant", draft.Tenant)
	log.Infof("Got submission: type %s, category %s, priority %s, device %s, content %d, attachments %d",
		draft.Type, draft.Category, draft.Priority, draft.DeviceType, len(draft.Content), len(draft.Attachments))

	s.storeAttachments(ctx, draft)

	if s.TranscriptionEnabled() && draft.AudioURL() != "" {
		draft.TranscriptionStatus = TranscriptionPending
	}

	id, err := s.Writer.Create(ctx, draft)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnknown {
			err = apperr.Upstream(err, "Can't create record")
		}
		return nil, err
	}
	log.Infof("Record created: %s", id)

	res := &Result{RecordID: id, Tenant: draft.Tenant, Type: draft.Type, Category: draft.Category,
		Priority: draft.Priority}
	if draft.TranscriptionStatus == TranscriptionPending {
		res.TranscriptionTriggered = s.dispatch(ctx, id, draft.AudioURL())
	}
	if draft.Priority == PriorityUrgent && s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, draft, id); err != nil {
			log.Error(errors.Wrapf(err, "Can't notify about urgent record %s", id))
		}
	}
	return res, nil
}

func (s *Service) dispatch(ctx context.Context, id, url string) (triggered bool) {
	defer func() {
		if r := recover(); r != nil {
			cmdapp.Log.Errorf("Transcription dispatch panic for %s: %v", id, r)
			triggered = false
		}
	}()
	if err := s.Dispatcher.Dispatch(ctx, id, url); err != nil {
		cmdapp.Log.Error(errors.Wrapf(err, "Can't dispatch transcription for %s", id))
		return false
	}
	cmdapp.Log.Infof("Transcription dispatched for %s", id)
	return true
}

//storeAttachments uploads files and annotates the content. Upload failure does not stop the submission
func (s *Service) storeAttachments(ctx context.Context, draft *Draft) {
	for _, a := range draft.Attachments {
		url, err := s.upload(ctx, draft.Tenant, a)
		a.Data = nil
		if err != nil {
			cmdapp.Log.Error(errors.Wrapf(err, "Can't upload attachment %s", a.Name))
			draft.Content = AppendLine(draft.Content, UploadFailedNote(&a.AttachmentMeta))
			continue
		}
		a.URL = url
		if a.IsAudio() {
			draft.Content = AppendLine(draft.Content, Placeholder(&a.AttachmentMeta))
		} else {
			draft.Content = AppendLine(draft.Content, AttachmentNote(&a.AttachmentMeta))
		}
	}
}

func (s *Service) upload(ctx context.Context, tenant string, a *Attachment) (string, error) {
	if s.Store == nil {
		return "", errors.New("No attachment store configured")
	}
	if len(a.Data) == 0 {
		return "", errors.New("Empty attachment")
	}
	ct := a.MimeType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return s.Store.Upload(ctx, bytes.NewReader(a.Data), ct, s.pathHint(tenant, a.Name))
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (s *Service) pathHint(tenant, name string) string {
	n := unsafeNameChars.ReplaceAllString(path.Base(strings.ReplaceAll(name, "\\", "/")), "_")
	n = strings.Trim(n, "._")
	if n == "" {
		n = uuid.New().String()
	}
	t := unsafeNameChars.ReplaceAllString(tenant, "_")
	return path.Join("voice-memos", t, fmt.Sprintf("%d-%s", s.Now().UnixMilli(), n))
}
