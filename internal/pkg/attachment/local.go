package attachment

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"bitbucket.org/localbzz/portalgo/internal/pkg/utils"
	"github.com/pkg/errors"
)

//WriterCloser keeps Writer interface and close function
type WriterCloser interface {
	io.Writer
	Close() error
}

//OpenFileFunc declares function to open file by name and return Writer
type OpenFileFunc func(fileName string) (WriterCloser, error)

// LocalStore saves files on local disk, the files are served by the portal under PublicURL
type LocalStore struct {
	// StoragePath is the main folder to save into
	StoragePath  string
	PublicURL    string
	OpenFileFunc OpenFileFunc
}

//NewLocalStore creates LocalStore instance
func NewLocalStore(storagePath, publicURL string) (*LocalStore, error) {
	cmdapp.Log.Infof("Init local attachment storage at: %s", storagePath)
	if storagePath == "" {
		return nil, errors.New("No storage path")
	}
	if publicURL == "" {
		return nil, errors.New("No public url for local storage")
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, errors.Wrap(err, "Can't create storage dir "+storagePath)
	}
	return &LocalStore{StoragePath: storagePath, PublicURL: publicURL, OpenFileFunc: openFile}, nil
}

// Upload saves file to disk, existing file is overwritten
func (fs *LocalStore) Upload(ctx context.Context, reader io.Reader, contentType, pathHint string) (string, error) {
	name := cleanPath(pathHint)
	if name == "" {
		return "", errors.New("No file name")
	}
	fileName := filepath.Join(fs.StoragePath, filepath.FromSlash(name))
	f, err := fs.OpenFileFunc(fileName)
	if err != nil {
		return "", errors.Wrap(err, "Can not create file "+fileName)
	}
	savedBytes, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		return "", errors.Wrap(err, "Can not save file "+fileName)
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "Can not close file "+fileName)
	}
	cmdapp.Log.Infof("Saved file %s (%s). Size = %d", fileName, contentType, savedBytes)
	return utils.URLJoin(fs.PublicURL, name), nil
}

func openFile(fileName string) (WriterCloser, error) {
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}
