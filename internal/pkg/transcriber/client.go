package transcriber

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"bitbucket.org/localbzz/portalgo/internal/pkg/apperr"
	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/utils"
	"github.com/pkg/errors"
)

const (
	//DefaultURL of the speech to text service
	DefaultURL = "https://api.openai.com/v1/audio/transcriptions"
	//DefaultModel of the speech to text service
	DefaultModel = "whisper-1"
	//DefaultLanguage of the voice memos
	DefaultLanguage = "en"
)

//Config of the speech to text client
type Config struct {
	URL      string
	Key      string
	Model    string
	Language string
	Timeout  time.Duration
}

//Client comunicates with speech to text service
type Client struct {
	httpclient *http.Client
	cfg        Config
}

//NewClient creates a transcriber client
func NewClient(cfg Config) (*Client, error) {
	if cfg.Key == "" {
		return nil, apperr.Configuration("Speech to text API key not configured")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if _, err := utils.ValidateURL(cfg.URL, "transcriber.url"); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindConfiguration, Msg: "Wrong transcriber url", Err: err}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	cmdapp.Log.Infof("Transcriber: %s, model: %s, lang: %s", cfg.URL, cfg.Model, cfg.Language)
	return &Client{cfg: cfg, httpclient: &http.Client{Timeout: cfg.Timeout}}, nil
}

//Transcribe uploads audio and returns the plain text transcript
func (sp *Client) Transcribe(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	cmdapp.Log.Infof("Sending audio to: %s", sp.cfg.URL)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+escapeQuotes(fileName)+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return "", errors.Wrap(err, "Can't add file to request")
	}
	if _, err = part.Write(data); err != nil {
		return "", errors.Wrap(err, "Can't add file to request")
	}
	for k, v := range map[string]string{"model": sp.cfg.Model, "language": sp.cfg.Language, "response_format": "text"} {
		if err := writer.WriteField(k, v); err != nil {
			return "", errors.Wrap(err, "Can't add field to request")
		}
	}
	if err := writer.Close(); err != nil {
		return "", errors.Wrap(err, "Can't prepare request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sp.cfg.URL, body)
	if err != nil {
		return "", errors.Wrap(err, "Can't prepare request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+sp.cfg.Key)

	resp, err := sp.httpclient.Do(req)
	if err != nil {
		return "", apperr.Upstream(err, "Speech to text call failed")
	}
	defer resp.Body.Close()
	if err := utils.ValidateResponse(resp); err != nil {
		return "", apperr.Upstream(err, "Speech to text call failed")
	}
	res, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Upstream(err, "Can't read transcript")
	}
	return string(res), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
