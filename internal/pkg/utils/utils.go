package utils

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

//URLJoin joins urls with '/'
func URLJoin(urls ...string) string {
	u, err := url.Parse(urls[0])
	if err != nil || u.Host == "" {
		return strings.Join(urls, "/")
	}
	u.Path = path.Join(u.Path, path.Join(urls[1:]...))
	return u.String()
}

//GetURLFromConfig retrieves URL from config and checks it
func GetURLFromConfig(name string) (string, error) {
	return ValidateURL(cmdapp.Config.GetString(name), name)
}

//ValidateURL checks if urlStr is a non empty absolute url
func ValidateURL(urlStr, settingName string) (string, error) {
	if urlStr == "" {
		return "", errors.New("No " + settingName + " setting provided")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return "", errors.Wrap(err, "Can't parse url "+urlStr)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.Errorf("Not an absolute url %s in %s", urlStr, settingName)
	}
	return u.String(), nil
}

//ErrWrongHTTPCall indicates failure due wrong http call
var ErrWrongHTTPCall = errors.New("Wrong http call")

//HTTPError keeps non 2xx response code
type HTTPError struct {
	Code int
	Body string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("Wrong response code from server. Code: %d\n%s", e.Code, e.Body)
}

//ValidateResponse returns *HTTPError if code is not in [200, 299]
func ValidateResponse(resp *http.Response) error {
	if !(resp.StatusCode >= 200 && resp.StatusCode <= 299) {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1000))
		trimS := ""
		if len(bodyBytes) > 200 {
			bodyBytes = bodyBytes[:200]
			trimS = "..."
		}
		return &HTTPError{Code: resp.StatusCode, Body: string(bodyBytes) + trimS}
	}
	return nil
}

//StatusCode returns the code of *HTTPError in chain or 0
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

//URLToLog removes pass from URL
func URLToLog(link string) string {
	u, err := url.Parse(link)
	if err == nil {
		if u.User != nil {
			u.User = url.UserPassword(u.User.Username(), "xxxx")
		}
		u.RawQuery = ""
		return u.String()
	}
	return link
}

//HideSecret leaves only the first chars of the secret for logs
func HideSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + "****"
}
