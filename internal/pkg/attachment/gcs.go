package attachment

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"bitbucket.org/localbzz/portalgo/internal/pkg/cmdapp"
	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
)

const gcsPublicHost = "https://storage.googleapis.com"

//GCSStore uploads files into Google Cloud Storage bucket
type GCSStore struct {
	client *storage.Client
	bucket string
	public bool
	//PublicURL is the base for returned links, defaults to the storage host with the bucket name
	PublicURL string
}

//NewGCSStore creates store, the client uses application default credentials
func NewGCSStore(ctx context.Context, bucket, publicURL string, public bool) (*GCSStore, error) {
	cmdapp.Log.Infof("Init GCS attachment storage: %s", bucket)
	if bucket == "" {
		return nil, errors.New("No bucket")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Can't create storage client")
	}
	res := &GCSStore{client: client, bucket: bucket, public: public, PublicURL: publicURL}
	if res.PublicURL == "" {
		res.PublicURL = gcsPublicHost + "/" + bucket
	}
	return res, nil
}

// Upload writes the object only if it does not exist, so a repeated call with the same path is safe
func (s *GCSStore) Upload(ctx context.Context, data io.Reader, contentType, pathHint string) (string, error) {
	name := cleanPath(pathHint)
	if name == "" {
		return "", errors.New("No object name")
	}
	w := s.client.Bucket(s.bucket).Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	if s.public {
		w.PredefinedACL = "publicRead"
	}
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		if isPreconditionFailed(err) {
			return s.url(name), nil
		}
		return "", errors.Wrapf(err, "Can't write object %s", name)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			cmdapp.Log.Infof("Object %s already exists", name)
			return s.url(name), nil
		}
		return "", errors.Wrapf(err, "Can't finalize object %s", name)
	}
	cmdapp.Log.Infof("Saved object gs://%s/%s (%s)", s.bucket, name, contentType)
	return s.url(name), nil
}

//Close releases the client
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) url(name string) string {
	return objectURL(s.PublicURL, name)
}

func objectURL(base, name string) string {
	return base + "/" + (&url.URL{Path: name}).EscapedPath()
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
