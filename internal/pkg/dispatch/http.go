package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/messages"
	"bitbucket.org/localbzz/portalgo/internal/pkg/utils"
	"github.com/pkg/errors"
)

//HTTPDispatcher calls the transcription endpoint without waiting for the job to finish
type HTTPDispatcher struct {
	httpclient *http.Client
	url        string
	timeout    time.Duration
	//done is called after the detached call finishes, for tests
	done func(error)
}

//NewHTTPDispatcher creates the dispatcher, url is the service base url
func NewHTTPDispatcher(url string, timeout time.Duration) (*HTTPDispatcher, error) {
	u, err := utils.ValidateURL(url, "dispatch.url")
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 70 * time.Second
	}
	return &HTTPDispatcher{httpclient: &http.Client{}, url: utils.URLJoin(u, "transcribe"), timeout: timeout}, nil
}

//Dispatch starts the call in the background and returns immediately.
//The call does not use the request context: the job outlives the request
func (d *HTTPDispatcher) Dispatch(ctx context.Context, recordID, audioURL string) error {
	b, err := json.Marshal(messages.NewTranscriptionMessage(recordID, audioURL))
	if err != nil {
		return errors.Wrap(err, "Can't marshal job")
	}
	go func() {
		err := d.call(b)
		if err != nil {
			cmdapp.Log.Error(errors.Wrapf(err, "Transcription call failed for %s", recordID))
		} else {
			cmdapp.Log.Infof("Transcription call finished for %s", recordID)
		}
		if d.done != nil {
			d.done(err)
		}
	}()
	return nil
}

func (d *HTTPDispatcher) call(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "Can't prepare request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.httpclient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return utils.ValidateResponse(resp)
}
