package mocks

import (
	"context"
	"io"

	"bitbucket.org/localbzz/portalgo/internal/pkg/loader"
	"bitbucket.org/localbzz/portalgo/internal/pkg/submission"
	"github.com/stretchr/testify/mock"
)

//AttachmentStore is a mock
type AttachmentStore struct {
	mock.Mock
}

func (m *AttachmentStore) Upload(ctx context.Context, data io.Reader, contentType, pathHint string) (string, error) {
	args := m.Called(data, contentType, pathHint)
	return args.String(0), args.Error(1)
}

//RecordWriter is a mock
type RecordWriter struct {
	mock.Mock
}

func (m *RecordWriter) Create(ctx context.Context, draft *submission.Draft) (string, error) {
	args := m.Called(draft)
	return args.String(0), args.Error(1)
}

//Dispatcher is a mock
type Dispatcher struct {
	mock.Mock
}

func (m *Dispatcher) Dispatch(ctx context.Context, recordID, audioURL string) error {
	args := m.Called(recordID, audioURL)
	return args.Error(0)
}

//Notifier is a mock
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Notify(ctx context.Context, draft *submission.Draft, recordID string) error {
	args := m.Called(draft, recordID)
	return args.Error(0)
}

//Downloader is a mock
type Downloader struct {
	mock.Mock
}

func (m *Downloader) Load(ctx context.Context, url string) (*loader.Audio, error) {
	args := m.Called(url)
	return mockAudio(args.Get(0)), args.Error(1)
}

//Transcriber is a mock
type Transcriber struct {
	mock.Mock
}

func (m *Transcriber) Transcribe(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	args := m.Called(fileName, contentType, data)
	return args.String(0), args.Error(1)
}

//Records is a mock
type Records struct {
	mock.Mock
}

func (m *Records) Get(ctx context.Context, id string) (*submission.Record, error) {
	args := m.Called(id)
	return mockRecord(args.Get(0)), args.Error(1)
}

func (m *Records) Update(ctx context.Context, id string, upd submission.RecordUpdate) error {
	args := m.Called(id, upd)
	return args.Error(0)
}

//Locker is a mock
type Locker struct {
	mock.Mock
}

func (m *Locker) Lock(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *Locker) Unlock(ctx context.Context, id string, completed bool, errText string) error {
	args := m.Called(id, completed, errText)
	return args.Error(0)
}

func mockAudio(v interface{}) *loader.Audio {
	if v == nil {
		return nil
	}
	return v.(*loader.Audio)
}

func mockRecord(v interface{}) *submission.Record {
	if v == nil {
		return nil
	}
	return v.(*submission.Record)
}
