// Package minio fetches PatentsView table extracts from an S3-compatible
// object store into a local directory the table reader can open.
package minio

import (
	"context"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/patentsview-graph/internal/config"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentsview-graph/pkg/errors"
)

const connectTimeout = 10 * time.Second

// MinIOAPI is the subset of *minio.Client used here.
type MinIOAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
}

type MinIOClient struct {
	client MinIOAPI
	config config.SourceConfig
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewMinIOClient connects to cfg.Endpoint and checks that bucket exists.
// Failures are CFG_006 errors: the data source named on the command line
// cannot be used.
func NewMinIOClient(ctx context.Context, cfg config.SourceConfig, bucket string, log logging.Logger) (*MinIOClient, error) {
	applyDefaults(&cfg)

	var creds *credentials.Credentials
	if cfg.AccessKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		creds = credentials.NewEnvAWS()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "failed to create object store client").WithDetail(cfg.Endpoint)
	}
	return newClientFrom(ctx, client, cfg, bucket, log)
}

func newClientFrom(ctx context.Context, api MinIOAPI, cfg config.SourceConfig, bucket string, log logging.Logger) (*MinIOClient, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	exists, err := api.BucketExists(cctx, bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "failed to reach object store").WithDetail(cfg.Endpoint)
	}
	if !exists {
		return nil, errors.New(errors.ErrCodeSourceUnavailable, "bucket not found").WithDetail(bucket)
	}

	log.Info("Object store connected", logging.String("endpoint", cfg.Endpoint), logging.String("bucket", bucket), logging.Bool("ssl", cfg.UseSSL))
	return &MinIOClient{client: api, config: cfg, logger: log}, nil
}

func applyDefaults(cfg *config.SourceConfig) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = config.DefaultSourceEndpoint
	}
}

var ErrMinIOClientClosed = errors.New(errors.ErrCodeInternal, "minio client is closed")

func (c *MinIOClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *MinIOClient) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

//Personal.AI order the ending
