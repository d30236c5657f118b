package records

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/submission"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]interface{}
}

func newTestServer(t *testing.T, calls *[]call, h func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, auth: r.Header.Get("Authorization")}
		b, _ := io.ReadAll(r.Body)
		if len(b) > 0 {
			_ = json.Unmarshal(b, &c.body)
		}
		*calls = append(*calls, c)
		h(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{URL: url, BaseID: "app1", Token: "pat1", Table: "tblSub",
		ClientsTable: "tblCl", ScheduleTable: "tblSh"})
	require.Nil(t, err)
	return c
}

func TestNewClient_Validates(t *testing.T) {
	_, err := NewClient(Config{BaseID: "app1", Token: "pat1", Table: "t"})
	assert.Nil(t, err)
	for _, c := range []Config{
		{Token: "pat1", Table: "t"},
		{BaseID: "app1", Table: "t"},
		{BaseID: "app1", Token: "pat1"},
		{URL: "olia", BaseID: "app1", Token: "pat1", Table: "t"},
	} {
		_, err := NewClient(c)
		assert.True(t, apperr.Is(err, apperr.KindConfiguration), "%v", c)
	}
}

func TestCreate(t *testing.T) {
	var calls []call
	s := newTestServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"rec1","fields":{}}`)
	})
	c := newTestClient(t, s.URL)

	id, err := c.Create(context.Background(), &submission.Draft{Content: "olia", Tenant: "acme", Type: "Request",
		Category: "General", Priority: "Urgent", DeviceType: submission.DeviceMobile, Title: "olia",
		TranscriptionStatus: submission.TranscriptionPending})

	require.Nil(t, err)
	assert.Equal(t, "rec1", id)
	require.Equal(t, 1, len(calls))
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.Equal(t, "/app1/tblSub", calls[0].path)
	assert.Equal(t, "Bearer pat1", calls[0].auth)
	f := calls[0].body["fields"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"Content": "olia", "Client Portal Subdomain": "acme", "Type": "Request",
		"Topic": "General", "Priority": "Urgent", "Status": "New", "Transcription Status": "Pending"}, f)
}

func TestCreate_OmitsTranscriptionStatus(t *testing.T) {
	var calls []call
	s := newTestServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"rec1"}`)
	})
	c := newTestClient(t, s.URL)
	c.schema.Title = "Title"
	c.schema.VoiceMemo = "Voice Memo"

	_, err := c.Create(context.Background(), &submission.Draft{Content: "olia", Title: "olia",
		Attachments: []*submission.Attachment{{AttachmentMeta: submission.AttachmentMeta{Name: "v.webm", URL: "http://f/v.webm"}},
			{AttachmentMeta: submission.AttachmentMeta{Name: "failed.webm"}}}})

	require.Nil(t, err)
	f := calls[0].body["fields"].(map[string]interface{})
	_, ok := f["Transcription Status"]
	assert.False(t, ok)
	assert.Equal(t, "olia", f["Title"])
	assert.Equal(t, []interface{}{map[string]interface{}{"url": "http://f/v.webm", "filename": "v.webm"}}, f["Voice Memo"])
}

func TestCreate_Errors(t *testing.T) {
	tests := []struct {
		code int
		is   error
	}{
		{code: 401, is: ErrUnauthorized},
		{code: 403, is: ErrUnauthorized},
		{code: 404, is: ErrNotFound},
		{code: 422, is: nil},
		{code: 500, is: nil},
	}
	for _, tc := range tests {
		var calls []call
		s := newTestServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.code)
			io.WriteString(w, `{"error":{"type":"INVALID_PERMISSIONS_OR_MODEL_NOT_FOUND"}}`)
		})
		c := newTestClient(t, s.URL)
		_, err := c.Create(context.Background(), &submission.Draft{Content: "olia"})
		require.NotNil(t, err, "code %d", tc.code)
		assert.True(t, apperr.Is(err, apperr.KindUpstream), "code %d", tc.code)
		if tc.is != nil {
			assert.True(t, errors.Is(err, tc.is), "code %d", tc.code)
		} else {
			assert.False(t, errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound), "code %d", tc.code)
		}
	}
}

func TestCreate_FailsOnNoID(t *testing.T) {
	var calls []call
	s := newTestServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})
	_, err := newTestClient(t, s.URL).Create(context.Background(), &submission.Draft{Content: "olia"})
	assert.NotNil(t, err)
}

func TestGet(t *testing.T) {
	var calls []call
	s := newTestServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"rec1","createdTime":"2024-02-01T10:00:00.000Z","fields":{"Content":"olia",
			"Client Portal Subdomain":"acme","Transcription Status":"Pending","Status":"New"}}`)
	})
	r, err := newTestClient(t, s.URL).Get(context.Background(), "rec1")

	require.Nil(t, err)
	assert.Equal(t, "/app1/tblSub/rec1", calls[0].path)
	assert.Equal(t, http.MethodGet, calls[0].method)
	assert.Equal(t, "rec1", r.ID)
	assert.Equal(t, "olia", r.Content)
	assert.Equal(t, "acme", r.Tenant)
	assert.Equal(t, "New", r.Status)
	assert.Equal(t, submission.TranscriptionPending, r.TranscriptionStatus)
	assert.Equal(t, 2024, r.CreatedAt.Year())
}

func TestUpdate(t *testing.T) {
	var calls []call
	s := newTestServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"rec1"}`)
	})
	c := newTestClient(t, s.URL)
	txt := "new text"

	err := c.Update(context.Background(), "rec1", submission.RecordUpdate{Content: &txt,
		TranscriptionStatus: submission.TranscriptionCompleted})

	require.Nil(t, err)
	assert.Equal(t, http.MethodPatch, calls[0].method)
	assert.Equal(t, "/app1/tblSub/rec1", calls[0].path)
	assert.Equal(t, map[string]interface{}{"Content": "new text", "Transcription Status": "Completed"},
		calls[0].body["fields"])

	err = c.Update(context.Background(), "rec1", submission.RecordUpdate{TranscriptionStatus: submission.TranscriptionFailed})
	require.Nil(t, err)
	assert.Equal(t, map[string]interface{}{"Transcription Status": "Failed"}, calls[1].body["fields"])

	assert.NotNil(t, c.Update(context.Background(), "rec1", submission.RecordUpdate{}))
	assert.Equal(t, 2, len(calls))
}

func TestList_Pages(t *testing.T) {
	var calls []call
	s := newTestServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "" {
			io.WriteString(w, `{"records":[{"id":"r1","fields":{}}],"offset":"p2"}`)
			return
		}
		io.WriteString(w, `{"records":[{"id":"r2","fields":{}}]}`)
	})
	recs, err := newTestClient(t, s.URL).List(context.Background(), "tblSh", "")

	require.Nil(t, err)
	require.Equal(t, 2, len(recs))
	assert.Equal(t, "r1", recs[0].ID)
	assert.Equal(t, "r2", recs[1].ID)
	assert.Equal(t, "offset=p2", calls[1].query)
}

func TestFindClient(t *testing.T) {
	var calls []call
	var formula string
	s := newTestServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		formula = r.URL.Query().Get("filterByFormula")
		io.WriteString(w, `{"records":[{"id":"recC","fields":{"Client Name":"Acme","Services":["Photo","Video"],
			"ActionNeeded: Schedule Shoot?":true,"Shoot Frequency":"Monthly"}}]}`)
	})
	cl, err := newTestClient(t, s.URL).FindClient(context.Background(), `ac"me`)

	require.Nil(t, err)
	assert.Equal(t, "/app1/tblCl", calls[0].path)
	assert.Equal(t, `{Client Portal Subdomain} = "ac\"me"`, formula)
	assert.Equal(t, "recC", cl.ID)
	assert.Equal(t, "Acme", cl.Name)
	assert.Equal(t, []string{"Photo", "Video"}, cl.Services)
	assert.Equal(t, "Active", cl.Status)
	assert.Equal(t, `ac"me`, cl.Subdomain)
	assert.Equal(t, "Monthly", cl.ShootFrequency)
	assert.True(t, cl.NeedsScheduling)
	assert.Nil(t, cl.Notes)
}

func TestFindClient_NotFound(t *testing.T) {
	var calls []call
	s := newTestServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"records":[]}`)
	})
	_, err := newTestClient(t, s.URL).FindClient(context.Background(), "acme")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestScheduleEvents(t *testing.T) {
	var calls []call
	s := newTestServer(t, &calls, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"records":[{"id":"s1","fields":{"Shoot Start":"2024-03-01T10:00:00.000Z",
			"Status":"Scheduled","Client Link":["recC"]}},{"id":"s2","fields":{}}]}`)
	})
	ev, err := newTestClient(t, s.URL).ScheduleEvents(context.Background())

	require.Nil(t, err)
	assert.Equal(t, "/app1/tblSh", calls[0].path)
	require.Equal(t, 2, len(ev))
	assert.Equal(t, "2024-03-01", ev[0].Date)
	assert.Equal(t, "Scheduled", ev[0].Status)
	assert.Equal(t, []string{"recC"}, ev[0].TenantRefs)
	assert.Equal(t, "", ev[1].Date)
}

func TestLoadSchema(t *testing.T) {
	f, err := os.CreateTemp("", "schema.*.yml")
	require.Nil(t, err)
	defer os.Remove(f.Name())
	_, err = f.WriteString("content: Text\ntitle: Title\n")
	require.Nil(t, err)
	require.Nil(t, f.Close())

	s, err := LoadSchema(f.Name())

	require.Nil(t, err)
	assert.Equal(t, "Text", s.Content)
	assert.Equal(t, "Title", s.Title)
	assert.Equal(t, "Topic", s.Category)
	assert.Equal(t, "Shoot Start", s.Schedule.Date)
}

func TestLoadSchema_Fails(t *testing.T) {
	_, err := LoadSchema("/no/such/file.yml")
	assert.NotNil(t, err)
	assert.NotNil(t, ParseSchema([]byte("content: ''\n"), DefaultSchema()))
	assert.NotNil(t, ParseSchema([]byte("content: [\n"), DefaultSchema()))
	s, err := LoadSchema("")
	assert.Nil(t, err)
	assert.Equal(t, DefaultSchema(), s)
}
