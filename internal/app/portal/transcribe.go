package portal

import (
	"encoding/json"
	"net/http"

	"bitbucket.org/localbzz/portalgo/internal/app/portal/api"
	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/transcription"
	"github.com/pkg/errors"
)

const transcribeFailedMsg = "Failed to transcribe voice memo"

type transcribeHandler struct {
	data *ServiceData
}

func (h transcribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.data.Worker == nil {
		writeError(w, apperr.Configuration("Speech to text service not configured"), transcribeFailedMsg)
		return
	}
	var req api.TranscribeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		cmdapp.Log.Warn(errors.Wrap(err, "Can't decode job"))
		writeError(w, apperr.Validation("Invalid request body"), transcribeFailedMsg)
		return
	}
	job := &transcription.Job{RecordID: req.RecordID, AudioURL: firstNonEmpty(req.AttachmentURL, req.VoiceMemoDLURL)}
	cmdapp.Log.Infof("Transcription request for %s", job.RecordID)

	res, err := h.data.Worker.Process(r.Context(), job)
	if err != nil {
		writeError(w, err, transcribeFailedMsg)
		return
	}
	writeJSON(w, http.StatusOK, api.TranscribeResponse{Success: true,
		Message: "Transcription completed and record updated", RecordID: res.RecordID,
		Transcription: res.Transcription, UpdatedContent: res.UpdatedContent})
}
