package portal

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"bitbucket.org/localbzz/portalgo/internal/app/portal/api"
	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/submission"
	"github.com/pkg/errors"
)

const submitFailedMsg = "Failed to submit request"

type submitHandler struct {
	data *ServiceData
	// requestForm marks the portal form: submissions are requests unless told otherwise
	requestForm bool
}

func (h submitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Submission from %s", r.Host)
	if h.data.Submitter == nil {
		writeError(w, apperr.Configuration("No submission service"), submitFailedMsg)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.data.MaxUploadBytes)

	in, override, err := h.readInput(r)
	if err != nil {
		writeError(w, err, submitFailedMsg)
		return
	}
	in.Tenant = h.data.Tenants.ResolveRequest(r, override)

	res, err := h.data.Submitter.Submit(r.Context(), in)
	if err != nil {
		writeError(w, err, submitFailedMsg)
		return
	}
	writeJSON(w, http.StatusOK, api.SubmitResponse{Success: true, Message: "Submission successful",
		Subdomain: res.Tenant, RecordID: res.RecordID, Type: res.Type, Category: res.Category,
		Priority: res.Priority, TranscriptionTriggered: res.TranscriptionTriggered})
}

func (h submitHandler) readInput(r *http.Request) (*submission.Input, string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/json":
		return h.readJSON(r)
	case "multipart/form-data", "application/x-www-form-urlencoded":
		return h.readForm(r)
	}
	return nil, "", apperr.Validation("Unsupported content type")
}

func (h submitHandler) readJSON(r *http.Request) (*submission.Input, string, error) {
	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cmdapp.Log.Warn(errors.Wrap(err, "Can't decode submission"))
		return nil, "", apperr.Validation("Invalid request body")
	}
	res := &submission.Input{Content: firstNonEmpty(req.Content, req.TextContent), DeviceType: req.DeviceType,
		IsRequest: h.requestForm, IsUrgent: req.IsUrgent}
	if req.IsRequest != nil {
		res.IsRequest = *req.IsRequest
	}
	for _, a := range req.Attachments {
		data, err := base64.StdEncoding.DecodeString(stripDataURL(a.Data))
		if err != nil {
			return nil, "", apperr.Validation("Invalid attachment data: " + a.Name)
		}
		res.Attachments = append(res.Attachments, &submission.Attachment{AttachmentMeta: submission.AttachmentMeta{
			Name: a.Name, MimeType: firstNonEmpty(a.MimeType, a.Type), SizeBytes: int64(len(data))}, Data: data})
	}
	return res, firstNonEmpty(req.Subdomain, req.Tenant), nil
}

func (h submitHandler) readForm(r *http.Request) (*submission.Input, string, error) {
	if err := r.ParseMultipartForm(h.data.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		cmdapp.Log.Warn(errors.Wrap(err, "Can't parse form"))
		return nil, "", apperr.Validation("Can't parse form")
	}
	defer cleanFiles(r.MultipartForm)
	res := &submission.Input{
		Content:    firstNonEmpty(r.FormValue(api.PrmContent), r.FormValue(api.PrmTextContent)),
		DeviceType: r.FormValue(api.PrmDeviceType),
		IsRequest:  h.requestForm,
		IsUrgent:   formBool(r.FormValue(api.PrmIsUrgent)),
	}
	if v, ok := r.Form[api.PrmIsRequest]; ok && len(v) > 0 {
		res.IsRequest = formBool(v[0])
	}
	for _, p := range api.FileParams {
		a, err := takeFile(r, p)
		if err != nil {
			return nil, "", err
		}
		if a != nil {
			res.Attachments = append(res.Attachments, a)
			break
		}
	}
	return res, firstNonEmpty(r.FormValue(api.PrmSubdomain), r.FormValue(api.PrmTenant)), nil
}

func takeFile(r *http.Request, param string) (*submission.Attachment, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, handler, err := r.FormFile(param)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation("Can't read file " + param)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperr.Validation("Can't read file " + param)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &submission.Attachment{AttachmentMeta: submission.AttachmentMeta{Name: handler.Filename,
		MimeType: handler.Header.Get("Content-Type"), SizeBytes: int64(len(data))}, Data: data}, nil
}

func cleanFiles(f *multipart.Form) {
	if f != nil {
		f.RemoveAll()
	}
}

func formBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// data:audio/webm;base64,xxxx
func stripDataURL(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i > 0 {
			return s[i+1:]
		}
	}
	return s
}
