package config

import (
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/turtacn/patentsview-graph/pkg/errors"
)

// S3Scheme prefixes data-directory arguments served from object storage.
const S3Scheme = "s3://"

// DataDir is a validated data-directory argument. Exactly one of Path and
// Bucket is set.
type DataDir struct {
	Path string

	Bucket string
	Prefix string
}

// IsRemote reports whether the tables must be fetched from object storage.
func (d DataDir) IsRemote() bool { return d.Bucket != "" }

func (d DataDir) String() string {
	if d.IsRemote() {
		return S3Scheme + d.Bucket + "/" + d.Prefix
	}
	return d.Path
}

// ResolveDataDir validates arg. Local paths must name an existing
// directory; s3:// URLs must name a bucket.
func ResolveDataDir(arg string) (DataDir, error) {
	if strings.HasPrefix(arg, S3Scheme) {
		rest := strings.TrimPrefix(arg, S3Scheme)
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return DataDir{}, pkgerrors.New(pkgerrors.ErrCodeDataDir, "s3 data source has no bucket").WithDetail(arg)
		}
		return DataDir{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
	}

	if arg == "" {
		return DataDir{}, pkgerrors.New(pkgerrors.ErrCodeDataDir, "data directory is empty")
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return DataDir{}, pkgerrors.Wrap(err, pkgerrors.ErrCodeDataDir, "cannot resolve data directory").WithDetail(arg)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return DataDir{}, pkgerrors.Wrap(err, pkgerrors.ErrCodeDataDir, "data directory does not exist").WithDetail(arg)
	}
	if !info.IsDir() {
		return DataDir{}, pkgerrors.New(pkgerrors.ErrCodeDataDir, "data path is not a directory").WithDetail(arg)
	}
	return DataDir{Path: abs}, nil
}

//Personal.AI order the ending
