package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Archiver uploads model artifacts to Amazon S3 (or compatible APIs).
type S3Archiver struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

// NewS3Archiver wraps an S3 client for artifact archival.
func NewS3Archiver(client *s3.Client, bucket string) *S3Archiver {
	return &S3Archiver{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
	}
}

// ArchiveDirectory uploads every file under localPath to the bucket
// beneath keyPrefix, preserving relative paths. Returns the s3:// URL
// of the prefix.
func (s *S3Archiver) ArchiveDirectory(ctx context.Context, localPath, keyPrefix string) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("archive bucket is required")
	}

	root := filepath.Clean(localPath)
	if fi, err := os.Stat(root); err != nil {
		return "", fmt.Errorf("stat artifact path: %w", err)
	} else if !fi.IsDir() {
		return "", fmt.Errorf("artifact path must be a directory")
	}

	keyPrefix = strings.Trim(keyPrefix, "/")

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}

		key := keyPrefix + "/" + filepath.ToSlash(rel)

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open artifact %s: %w", path, err)
		}
		defer f.Close()

		_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   f,
			ACL:    types.ObjectCannedACLPrivate,
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, keyPrefix), nil
}

var _ Archiver = (*S3Archiver)(nil)
