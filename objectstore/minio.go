package objectstore

import (
	"context"
	"io"
	"time"

	"github.com/amirrezaask/highlight/errors"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	_MINIO_HEALTH_CHECK_AFTER = time.Second * 2
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
	// Region defaults to us-east-1, which also spares a location lookup.
	Region string
}

type MinioClient struct {
	bucketName string

	c *minio.Client
}

// NewMinio connects to an existing bucket. Unlike a writer, a reader has no
// business creating the bucket, so a missing one is an error.
func NewMinio(ctx context.Context, c Config) (*MinioClient, error) {
	region := c.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(c.Endpoint, &minio.Options{
		Region: region,
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: c.Secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio client cannot be created")
	}
	_, _ = client.HealthCheck(_MINIO_HEALTH_CHECK_AFTER)

	if !client.IsOnline() {
		return nil, errors.Newf("minio endpoint is offline")
	}
	exists, err := client.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, errors.Wrap(err, "minio bucket exists failed")
	}
	if !exists {
		return nil, errors.E(errors.KindNotFound, "minio bucket %s does not exist", c.Bucket)
	}

	return &MinioClient{c: client, bucketName: c.Bucket}, nil
}

func (m *MinioClient) Bucket() string { return m.bucketName }

// Get opens object name for reading. The caller closes it.
func (m *MinioClient) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, err := m.c.GetObject(ctx, m.bucketName, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "cannot get object %s/%s", m.bucketName, name)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, errors.E(errors.KindNotFound, "object %s/%s not found: %w", m.bucketName, name, err)
		}
		return nil, errors.Wrap(err, "cannot stat object %s/%s", m.bucketName, name)
	}

	return obj, nil
}
