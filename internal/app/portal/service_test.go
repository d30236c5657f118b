package portal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/app/portal/api"
	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/records"
	"bitbucket.org/localbzz/portalgo/internal/pkg/schedule"
	"bitbucket.org/localbzz/portalgo/internal/pkg/submission"
	"bitbucket.org/localbzz/portalgo/internal/pkg/transcription"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type submitterMock struct{ mock.Mock }

func (m *submitterMock) Submit(ctx context.Context, in *submission.Input) (*submission.Result, error) {
	args := m.Called(in)
	res, _ := args.Get(0).(*submission.Result)
	return res, args.Error(1)
}

type processorMock struct{ mock.Mock }

func (m *processorMock) Process(ctx context.Context, job *transcription.Job) (*transcription.Result, error) {
	args := m.Called(job)
	res, _ := args.Get(0).(*transcription.Result)
	return res, args.Error(1)
}

type clientsMock struct{ mock.Mock }

func (m *clientsMock) FindClient(ctx context.Context, tenant string) (*records.ClientInfo, error) {
	args := m.Called(tenant)
	res, _ := args.Get(0).(*records.ClientInfo)
	return res, args.Error(1)
}

func (m *clientsMock) ScheduleEvents(ctx context.Context) ([]schedule.Event, error) {
	args := m.Called()
	res, _ := args.Get(0).([]schedule.Event)
	return res, args.Error(1)
}

var (
	submitterMk *submitterMock
	processorMk *processorMock
	clientsMk   *clientsMock
)

func initTest(t *testing.T) *ServiceData {
	t.Helper()
	submitterMk = &submitterMock{}
	processorMk = &processorMock{}
	clientsMk = &clientsMock{}
	return &ServiceData{Submitter: submitterMk, Worker: processorMk, Clients: clientsMk,
		Now: func() time.Time { return time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC) }}
}

func okResult() *submission.Result {
	return &submission.Result{RecordID: "rec1", Tenant: "acme", Type: "Insights", Category: "General",
		Priority: "Normal"}
}

func TestWrongPath(t *testing.T) {
	resp := testCode(t, initTest(t), httptest.NewRequest(http.MethodGet, "/invalid", nil), http.StatusNotFound)
	assert.NotNil(t, resp)
}

func TestPreflight(t *testing.T) {
	for _, p := range []string{"/submit", "/portal/submit", "/transcribe", "/client-info"} {
		t.Run(p, func(t *testing.T) {
			resp := testCode(t, initTest(t), httptest.NewRequest(http.MethodOptions, p, nil), http.StatusOK)
			assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "POST, GET, OPTIONS", resp.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type", resp.Header().Get("Access-Control-Allow-Headers"))
		})
	}
}

func TestSubmit_JSON(t *testing.T) {
	data := initTest(t)
	submitterMk.On("Submit", mock.Anything).Return(okResult(), nil)

	req := newJSONRequest(t, "/submit", api.SubmitRequest{TextContent: "Need help", Subdomain: "ACME"})
	req.Host = "other.example.com"
	resp := testCode(t, data, req, http.StatusOK)

	var res api.SubmitResponse
	decode(t, resp, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "Submission successful", res.Message)
	assert.Equal(t, "rec1", res.RecordID)
	assert.Equal(t, "acme", res.Subdomain)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))

	in := submitterMk.Calls[0].Arguments.Get(0).(*submission.Input)
	assert.Equal(t, "Need help", in.Content)
	assert.Equal(t, "acme", in.Tenant)
	assert.False(t, in.IsRequest)
}

func TestSubmit_JSONIsRequest(t *testing.T) {
	data := initTest(t)
	submitterMk.On("Submit", mock.Anything).Return(okResult(), nil)

	yes := true
	testCode(t, data, newJSONRequest(t, "/submit", api.SubmitRequest{Content: "x", IsRequest: &yes, IsUrgent: true}),
		http.StatusOK)

	in := submitterMk.Calls[0].Arguments.Get(0).(*submission.Input)
	assert.True(t, in.IsRequest)
	assert.True(t, in.IsUrgent)
}

func TestSubmit_JSONAttachment(t *testing.T) {
	data := initTest(t)
	submitterMk.On("Submit", mock.Anything).Return(okResult(), nil)

	enc := base64.StdEncoding.EncodeToString([]byte("audio"))
	testCode(t, data, newJSONRequest(t, "/submit", api.SubmitRequest{Attachments: []api.Attachment{
		{Name: "memo.webm", Type: "audio/webm", Data: "data:audio/webm;base64," + enc}}}), http.StatusOK)

	in := submitterMk.Calls[0].Arguments.Get(0).(*submission.Input)
	require.Len(t, in.Attachments, 1)
	assert.Equal(t, "memo.webm", in.Attachments[0].Name)
	assert.Equal(t, "audio/webm", in.Attachments[0].MimeType)
	assert.Equal(t, []byte("audio"), in.Attachments[0].Data)
	assert.Equal(t, int64(5), in.Attachments[0].SizeBytes)
	assert.Equal(t, "demo", in.Tenant)
}

func TestSubmit_JSONWrongAttachment(t *testing.T) {
	data := initTest(t)
	resp := testCode(t, data, newJSONRequest(t, "/submit", api.SubmitRequest{Attachments: []api.Attachment{
		{Name: "memo.webm", Data: "!!!"}}}), http.StatusBadRequest)
	assert.Equal(t, "Invalid attachment data: memo.webm", errorText(t, resp))
	submitterMk.AssertNotCalled(t, "Submit", mock.Anything)
}

func TestSubmit_WrongJSON(t *testing.T) {
	data := initTest(t)
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader("{olia"))
	req.Header.Set("Content-Type", "application/json")
	resp := testCode(t, data, req, http.StatusBadRequest)
	assert.Equal(t, "Invalid request body", errorText(t, resp))
}

func TestSubmit_WrongContentType(t *testing.T) {
	data := initTest(t)
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader("olia"))
	req.Header.Set("Content-Type", "text/plain")
	testCode(t, data, req, http.StatusBadRequest)
}

func TestSubmit_PortalForm(t *testing.T) {
	data := initTest(t)
	submitterMk.On("Submit", mock.Anything).Return(okResult(), nil)

	req := newMultipartRequest(t, "/portal/submit", map[string]string{"textContent": "Shoot next week",
		"isUrgent": "true"}, "voiceFile", "memo.webm", "audio")
	req.Host = "acme.portal.example.com:443"
	testCode(t, data, req, http.StatusOK)

	in := submitterMk.Calls[0].Arguments.Get(0).(*submission.Input)
	assert.Equal(t, "Shoot next week", in.Content)
	assert.Equal(t, "acme", in.Tenant)
	assert.True(t, in.IsRequest)
	assert.True(t, in.IsUrgent)
	require.Len(t, in.Attachments, 1)
	assert.Equal(t, "memo.webm", in.Attachments[0].Name)
	assert.Equal(t, int64(5), in.Attachments[0].SizeBytes)
}

func TestSubmit_Form(t *testing.T) {
	data := initTest(t)
	submitterMk.On("Submit", mock.Anything).Return(okResult(), nil)

	req := newMultipartRequest(t, "/submit", map[string]string{"content": "Idea", "subdomain": "beta",
		"deviceType": "mobile"}, "voiceMemo", "memo.webm", "audio")
	testCode(t, data, req, http.StatusOK)

	in := submitterMk.Calls[0].Arguments.Get(0).(*submission.Input)
	assert.Equal(t, "beta", in.Tenant)
	assert.Equal(t, "mobile", in.DeviceType)
	assert.False(t, in.IsRequest)
	assert.Len(t, in.Attachments, 1)
}

func TestSubmit_FormTakesFirstVoiceFile(t *testing.T) {
	data := initTest(t)
	submitterMk.On("Submit", mock.Anything).Return(okResult(), nil)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.Nil(t, writer.WriteField("content", "x"))
	for _, f := range []struct{ field, name string }{{"voiceFile", "b.webm"}, {"voiceMemo", "a.webm"}} {
		part, err := writer.CreateFormFile(f.field, f.name)
		require.Nil(t, err)
		_, err = part.Write([]byte("audio"))
		require.Nil(t, err)
	}
	require.Nil(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	testCode(t, data, req, http.StatusOK)

	in := submitterMk.Calls[0].Arguments.Get(0).(*submission.Input)
	require.Len(t, in.Attachments, 1)
	assert.Equal(t, "a.webm", in.Attachments[0].Name)
}

func TestSubmit_FormIsRequestFalse(t *testing.T) {
	data := initTest(t)
	submitterMk.On("Submit", mock.Anything).Return(okResult(), nil)

	req := newMultipartRequest(t, "/portal/submit", map[string]string{"textContent": "x", "isRequest": "false"}, "", "", "")
	testCode(t, data, req, http.StatusOK)

	in := submitterMk.Calls[0].Arguments.Get(0).(*submission.Input)
	assert.False(t, in.IsRequest)
	assert.Empty(t, in.Attachments)
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{name: "validation", err: apperr.Validation("Content or voice memo is required"), code: http.StatusBadRequest,
			msg: "Content or voice memo is required"},
		{name: "upstream", err: apperr.Upstream(errors.New("token olia"), "Can't create"), code: http.StatusInternalServerError,
			msg: "Failed to submit request"},
		{name: "configuration", err: apperr.Configuration("No table"), code: http.StatusInternalServerError,
			msg: "Server configuration error"},
		{name: "unknown", err: errors.New("olia"), code: http.StatusInternalServerError, msg: "Failed to submit request"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := initTest(t)
			submitterMk.On("Submit", mock.Anything).Return(nil, tc.err)
			resp := testCode(t, data, newJSONRequest(t, "/submit", api.SubmitRequest{Content: "x"}), tc.code)
			assert.Equal(t, tc.msg, errorText(t, resp))
		})
	}
}

func TestSubmit_NoService(t *testing.T) {
	data := initTest(t)
	data.Submitter = nil
	resp := testCode(t, data, newJSONRequest(t, "/submit", api.SubmitRequest{Content: "x"}), http.StatusInternalServerError)
	assert.Equal(t, "Server configuration error", errorText(t, resp))
}

func TestTranscribe(t *testing.T) {
	data := initTest(t)
	processorMk.On("Process", mock.Anything).Return(&transcription.Result{RecordID: "rec1",
		Transcription: "hello", UpdatedContent: "🎤 Voice memo transcription: \"hello\""}, nil)

	resp := testCode(t, data, newJSONRequest(t, "/transcribe", map[string]string{"recordId": "rec1",
		"voiceMemoDLUrl": "http://host/a.webm"}), http.StatusOK)

	var res api.TranscribeResponse
	decode(t, resp, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "Transcription completed and record updated", res.Message)
	assert.Equal(t, "hello", res.Transcription)
	job := processorMk.Calls[0].Arguments.Get(0).(*transcription.Job)
	assert.Equal(t, &transcription.Job{RecordID: "rec1", AudioURL: "http://host/a.webm"}, job)
}

func TestTranscribe_AttachmentURLWins(t *testing.T) {
	data := initTest(t)
	processorMk.On("Process", mock.Anything).Return(&transcription.Result{RecordID: "rec1"}, nil)

	testCode(t, data, newJSONRequest(t, "/transcribe", api.TranscribeRequest{RecordID: "rec1",
		AttachmentURL: "http://host/b.webm", VoiceMemoDLURL: "http://host/a.webm"}), http.StatusOK)

	job := processorMk.Calls[0].Arguments.Get(0).(*transcription.Job)
	assert.Equal(t, "http://host/b.webm", job.AudioURL)
}

func TestTranscribe_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{name: "validation", err: apperr.Validation("Record ID and voice memo URL are required"),
			code: http.StatusBadRequest, msg: "Record ID and voice memo URL are required"},
		{name: "conflict", err: apperr.Conflict("Transcription already completed"), code: http.StatusConflict,
			msg: "Transcription already completed"},
		{name: "upstream", err: apperr.Upstream(errors.New("stt down"), "Can't transcribe"),
			code: http.StatusInternalServerError, msg: "Failed to transcribe voice memo"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := initTest(t)
			processorMk.On("Process", mock.Anything).Return(nil, tc.err)
			resp := testCode(t, data, newJSONRequest(t, "/transcribe", api.TranscribeRequest{RecordID: "rec1"}), tc.code)
			assert.Equal(t, tc.msg, errorText(t, resp))
		})
	}
}

func TestTranscribe_WrongBody(t *testing.T) {
	data := initTest(t)
	testCode(t, data, httptest.NewRequest(http.MethodPost, "/transcribe", strings.NewReader("olia")),
		http.StatusBadRequest)
	processorMk.AssertNotCalled(t, "Process", mock.Anything)
}

func TestTranscribe_NoWorker(t *testing.T) {
	data := initTest(t)
	data.Worker = nil
	resp := testCode(t, data, newJSONRequest(t, "/transcribe", api.TranscribeRequest{RecordID: "rec1"}),
		http.StatusInternalServerError)
	assert.Equal(t, "Server configuration error", errorText(t, resp))
}

func TestClientInfo(t *testing.T) {
	data := initTest(t)
	clientsMk.On("FindClient", "acme").Return(&records.ClientInfo{ID: "c1", Name: "Acme", Services: []string{"Photo"},
		Status: "Active", Subdomain: "acme"}, nil)
	clientsMk.On("ScheduleEvents").Return([]schedule.Event{
		{ID: "e1", TenantRefs: []string{"c1"}, Date: "2024-01-01", Status: "Completed"},
		{ID: "e2", TenantRefs: []string{"c1"}, Date: "2024-03-01", Status: "Scheduled"},
		{ID: "e3", TenantRefs: []string{"c2"}, Date: "2024-02-20", Status: "Scheduled"},
		{ID: "e4", TenantRefs: []string{"c1"}, Date: "2024-02-20", Status: "Cancelled"},
	}, nil)

	resp := testCode(t, data, httptest.NewRequest(http.MethodGet, "/client-info?subdomain=Acme", nil), http.StatusOK)

	var res api.ClientInfoResponse
	decode(t, resp, &res)
	assert.True(t, res.Success)
	require.NotNil(t, res.LastEventDate)
	assert.Equal(t, "2024-01-01", *res.LastEventDate)
	require.NotNil(t, res.NextEventDate)
	assert.Equal(t, "2024-03-01", *res.NextEventDate)
	require.NotNil(t, res.Client)
	assert.Equal(t, "Acme", res.Client.Name)
	assert.Equal(t, "2024-03-01", res.Client.NextScheduledShoot)
	require.NotNil(t, res.Client.LastShootDate)
	assert.Equal(t, "2024-01-01", *res.Client.LastShootDate)
}

func TestClientInfo_ScheduleFails(t *testing.T) {
	data := initTest(t)
	clientsMk.On("FindClient", "acme").Return(&records.ClientInfo{ID: "c1", Name: "Acme", Services: []string{}}, nil)
	clientsMk.On("ScheduleEvents").Return(nil, errors.New("olia"))

	resp := testCode(t, data, httptest.NewRequest(http.MethodGet, "/client-info?subdomain=acme", nil), http.StatusOK)

	var res map[string]interface{}
	decode(t, resp, &res)
	assert.Nil(t, res["lastEventDate"])
	assert.Nil(t, res["nextEventDate"])
	client := res["client"].(map[string]interface{})
	assert.Equal(t, "None", client["nextScheduledShoot"])
	assert.Nil(t, client["lastShootDate"])
}

func TestClientInfo_NoSubdomain(t *testing.T) {
	data := initTest(t)
	resp := testCode(t, data, httptest.NewRequest(http.MethodGet, "/client-info", nil), http.StatusBadRequest)
	assert.Equal(t, "Subdomain parameter is required", errorText(t, resp))
	clientsMk.AssertNotCalled(t, "FindClient", mock.Anything)
}

func TestClientInfo_NotFound(t *testing.T) {
	data := initTest(t)
	clientsMk.On("FindClient", "acme").Return(nil, apperr.NotFound("Client not found for this subdomain"))
	clientsMk.On("ScheduleEvents").Return([]schedule.Event{}, nil)

	resp := testCode(t, data, httptest.NewRequest(http.MethodGet, "/client-info?tenant=acme", nil), http.StatusNotFound)
	assert.Equal(t, "Client not found for this subdomain", errorText(t, resp))
}

func TestClientInfo_Upstream(t *testing.T) {
	data := initTest(t)
	clientsMk.On("FindClient", "acme").Return(nil, apperr.Upstream(errors.New("401"), "Can't list"))
	clientsMk.On("ScheduleEvents").Return([]schedule.Event{}, nil)

	resp := testCode(t, data, httptest.NewRequest(http.MethodGet, "/client-info?subdomain=acme", nil),
		http.StatusInternalServerError)
	assert.Equal(t, "Failed to fetch client information", errorText(t, resp))
}

func TestClientInfo_NoDatastore(t *testing.T) {
	data := initTest(t)
	data.Clients = nil
	testCode(t, data, httptest.NewRequest(http.MethodGet, "/client-info?subdomain=acme", nil),
		http.StatusInternalServerError)
}

func TestAttachments(t *testing.T) {
	data := initTest(t)
	dir := t.TempDir()
	data.AttachmentsDir = dir
	require.Nil(t, os.WriteFile(filepath.Join(dir, "memo.webm"), []byte("audio"), 0644))

	resp := testCode(t, data, httptest.NewRequest(http.MethodGet, "/attachments/memo.webm", nil), http.StatusOK)
	assert.Equal(t, "audio", resp.Body.String())
}

func TestAttachments_NotServedWithoutDir(t *testing.T) {
	testCode(t, initTest(t), httptest.NewRequest(http.MethodGet, "/attachments/memo.webm", nil), http.StatusNotFound)
}

func TestLive(t *testing.T) {
	testCode(t, initTest(t), httptest.NewRequest(http.MethodGet, "/live", nil), http.StatusOK)
}

func testCode(t *testing.T, data *ServiceData, req *http.Request, code int) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	NewRouter(data).ServeHTTP(resp, req)
	assert.Equal(t, code, resp.Code)
	return resp
}

func newJSONRequest(t *testing.T, path string, v interface{}) *http.Request {
	t.Helper()
	b, err := json.Marshal(v)
	require.Nil(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func newMultipartRequest(t *testing.T, path string, fields map[string]string, fileField, fileName,
	fileData string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.Nil(t, writer.WriteField(k, v))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		require.Nil(t, err)
		_, err = part.Write([]byte(fileData))
		require.Nil(t, err)
	}
	require.Nil(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.Nil(t, json.NewDecoder(resp.Body).Decode(v))
}

func errorText(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var res api.ErrorResponse
	decode(t, resp, &res)
	return res.Error
}
