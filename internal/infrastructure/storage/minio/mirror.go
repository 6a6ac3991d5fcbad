package minio

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/patentsview-graph/internal/config"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentsview-graph/internal/infrastructure/storage/tablefile"
	"github.com/turtacn/patentsview-graph/pkg/errors"
)

// MirrorResult describes a completed mirror.
type MirrorResult struct {
	Dir        string
	Downloaded []string
	Cached     []string
}

// Mirror copies every table extract directly under src's prefix into
// cacheDir/<bucket>/<prefix>. Objects already present locally with the same
// size are not fetched again. Other objects and nested prefixes are ignored.
func (c *MinIOClient) Mirror(ctx context.Context, src config.DataDir, cacheDir string) (MirrorResult, error) {
	if c.isClosed() {
		return MirrorResult{}, ErrMinIOClientClosed
	}

	dest := filepath.Join(cacheDir, src.Bucket, filepath.FromSlash(src.Prefix))
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return MirrorResult{}, errors.Wrap(err, errors.ErrCodeDataDir, "cannot create cache directory").WithDetail(dest)
	}
	result := MirrorResult{Dir: dest}

	prefix := src.Prefix
	if prefix != "" {
		prefix += "/"
	}
	objects := c.client.ListObjects(ctx, src.Bucket, minio.ListObjectsOptions{Prefix: prefix})

	for obj := range objects {
		if obj.Err != nil {
			return result, errors.Wrap(obj.Err, errors.ErrCodeSourceUnavailable, "failed to list objects").WithDetail(src.String())
		}
		name := path.Base(obj.Key)
		if obj.Key != prefix+name || !tablefile.IsTableFile(name) {
			continue
		}

		local := filepath.Join(dest, name)
		if info, err := os.Stat(local); err == nil && info.Size() == obj.Size {
			c.logger.Debug("Using cached object", logging.String(logging.FieldFile, local))
			result.Cached = append(result.Cached, name)
			continue
		}

		c.logger.Info("Downloading object",
			logging.String("object", obj.Key),
			logging.Int64("size", obj.Size),
			logging.String(logging.FieldFile, local))
		if err := c.client.FGetObject(ctx, src.Bucket, obj.Key, local, minio.GetObjectOptions{}); err != nil {
			return result, errors.Wrap(err, errors.ErrCodeSourceUnavailable, "failed to download object").WithDetail(obj.Key)
		}
		result.Downloaded = append(result.Downloaded, name)
	}
	return result, nil
}

//Personal.AI order the ending
