package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/vault-autounseal/interfaces"
)

// StoreFactory creates object stores from URI strings.
type StoreFactory struct {
	log *slog.Logger
}

// NewStoreFactory creates a new factory instance that can create object stores.
func NewStoreFactory(logger *slog.Logger) *StoreFactory {
	return &StoreFactory{
		log: logger,
	}
}

// StoreFor creates an object store from a location URI.
// The URI format should be [scheme]://[auth@]host[/path][?params]
//
// Supported schemes:
//   - s3:// - Amazon S3 or compatible object storage
//   - file:// - Local filesystem storage
//   - mem:// - In-process storage, for tests
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *StoreFactory) StoreFor(locationURI string) (interfaces.ObjectStore, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "s3":
		return sf.createS3Store(u)
	case "file":
		return sf.createFileStore(u)
	case "mem":
		return NewMemStore(sf.log), nil
	default:
		return nil, fmt.Errorf("%w: unsupported scheme: %s", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// createS3Store creates an S3 or S3-compatible object store.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2&endpoint=custom.s3.com
// Without embedded credentials the SDK default credential chain is used.
func (sf *StoreFactory) createS3Store(u *url.URL) (interfaces.ObjectStore, error) {
	sf.log.Debug("Creating S3 store", slog.String("uri", u.Redacted()))

	bucketName := u.Host
	if bucketName == "" {
		return nil, fmt.Errorf("%w: missing bucket name in S3 URI", interfaces.ErrInvalidLocationURI)
	}

	prefix := strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1" // Default region
	}

	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
		sf.log.Debug("Using embedded S3 credentials")
	}

	return NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey, sf.log)
}

// createFileStore creates a file system object store.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *StoreFactory) createFileStore(u *url.URL) (interfaces.ObjectStore, error) {
	sf.log.Debug("Creating file store", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}

	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI: %s", interfaces.ErrInvalidLocationURI, u.String())
	}

	return NewFileStore(path, sf.log)
}
