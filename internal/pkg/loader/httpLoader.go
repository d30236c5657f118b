package loader

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/utils"
	"github.com/pkg/errors"
)

//DefaultMaxBytes is the default limit of the downloaded audio
const DefaultMaxBytes int64 = 25 * 1024 * 1024

//Audio is the downloaded file
type Audio struct {
	Name        string
	ContentType string
	Data        []byte
}

// HTTPLoader downloads attachments by public url
type HTTPLoader struct {
	httpclient *http.Client
	MaxBytes   int64
}

// NewHTTPLoader creates HTTPLoader instance
func NewHTTPLoader(timeout time.Duration, maxBytes int64) *HTTPLoader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPLoader{httpclient: &http.Client{Timeout: timeout}, MaxBytes: maxBytes}
}

// Load downloads the file, fails if it is empty or larger than MaxBytes
func (l *HTTPLoader) Load(ctx context.Context, urlStr string) (*Audio, error) {
	cmdapp.Log.Infof("Downloading %s", utils.URLToLog(urlStr))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare request")
	}
	resp, err := l.httpclient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "Can't download")
	}
	defer resp.Body.Close()
	if err := utils.ValidateResponse(resp); err != nil {
		return nil, errors.Wrap(err, "Can't download")
	}
	if resp.ContentLength > l.MaxBytes {
		return nil, errors.Errorf("File too large: %d bytes", resp.ContentLength)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, l.MaxBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "Can't read file")
	}
	if int64(len(data)) > l.MaxBytes {
		return nil, errors.Errorf("File too large: more than %d bytes", l.MaxBytes)
	}
	if len(data) == 0 {
		return nil, errors.New("Empty file")
	}
	return &Audio{Name: fileName(urlStr), ContentType: contentType(resp.Header.Get("Content-Type")), Data: data}, nil
}

func fileName(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err == nil {
		if n := path.Base(u.Path); n != "" && n != "." && n != "/" && path.Ext(n) != "" {
			return n
		}
	}
	return "audio.webm"
}

func contentType(ct string) string {
	ct = strings.TrimSpace(strings.Split(ct, ";")[0])
	if ct == "" || ct == "application/octet-stream" {
		return "audio/webm"
	}
	return ct
}
