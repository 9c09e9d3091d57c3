package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"hitrank/pkg/errors"
)

// CloudStorageClient checks that challenge media stored in the app's bucket
// exists. Media hosted elsewhere (e.g. YouTube links) is accepted as long as
// it is a well-formed http(s) URL.
type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}

func (c *CloudStorageClient) Verify(ctx context.Context, ref string) error {
	bucket, object, stored, err := parseObjectRef(ref)
	if err != nil {
		return err
	}
	if !stored {
		return nil
	}
	if bucket != c.bucketName {
		return errors.BadRequest("Media must be uploaded to the app's storage bucket", nil)
	}

	_, err = c.client.Bucket(bucket).Object(object).Attrs(ctx)
	if stderrors.Is(err, storage.ErrObjectNotExist) {
		return errors.BadRequest("Media not found", err)
	}
	if err != nil {
		return errors.Internal("Failed to check media", err)
	}
	return nil
}

// parseObjectRef extracts bucket and object from gs://, storage.googleapis.com
// and Firebase download URLs. stored is false for any other valid URL.
func parseObjectRef(ref string) (bucket, object string, stored bool, err error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || u.Host == "" {
		return "", "", false, errors.BadRequest("Invalid media reference", err)
	}

	switch {
	case u.Scheme == "gs":
		bucket, object = u.Host, strings.TrimPrefix(u.Path, "/")

	case u.Host == "storage.googleapis.com":
		parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
		if len(parts) == 2 {
			bucket, object = parts[0], parts[1]
		}

	case u.Host == "firebasestorage.googleapis.com":
		// /v0/b/{bucket}/o/{escaped object}
		parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 5)
		if len(parts) == 5 && parts[1] == "b" && parts[3] == "o" {
			bucket, object = parts[2], parts[4]
		}

	case u.Scheme == "http" || u.Scheme == "https":
		return "", "", false, nil

	default:
		return "", "", false, errors.BadRequest("Invalid media reference", nil)
	}

	if bucket == "" || object == "" {
		return "", "", false, errors.BadRequest("Invalid media reference", nil)
	}
	return bucket, object, true, nil
}
