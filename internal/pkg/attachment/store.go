// Package attachment keeps uploaded submission files in the object storage and returns their urls.
package attachment

import (
	"context"
	"io"
	"strings"
)

//Store uploads the data and returns durable url
type Store interface {
	Upload(ctx context.Context, data io.Reader, contentType, pathHint string) (string, error)
}

//cleanPath drops leading slashes and parent references from the path hint
func cleanPath(p string) string {
	parts := strings.Split(strings.ReplaceAll(p, "\\", "/"), "/")
	res := make([]string, 0, len(parts))
	for _, s := range parts {
		if s == "" || s == "." || s == ".." {
			continue
		}
		res = append(res, s)
	}
	return strings.Join(res, "/")
}
