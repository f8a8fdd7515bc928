// Package archive uploads the files produced by a run to S3.
package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"sitewatch/pkg/logger"
)

// ObjectPutter is the part of the S3 client the archiver needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config contains minimal configuration for creating an S3 client.
// Empty values fall back to the standard AWS config/credential chain.
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	UsePathStyle bool
}

// S3Archiver uploads run artifacts under <prefix>/<run timestamp>/<dir>/<file>
type S3Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
	logger logger.Interface
}

// NewS3Archiver creates an archiver using the default AWS configuration chain
func NewS3Archiver(ctx context.Context, cfg S3Config, log logger.Interface) (*S3Archiver, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix, log), nil
}

// NewWithClient creates an archiver around an existing client
func NewWithClient(client ObjectPutter, bucket, prefix string, log logger.Interface) *S3Archiver {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &S3Archiver{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: log,
	}
}

// Key returns the object key a local file is archived under
func (a *S3Archiver) Key(runTimestamp, localPath string) string {
	dir := filepath.Base(filepath.Dir(localPath))
	return path.Join(a.prefix, runTimestamp, dir, filepath.Base(localPath))
}

// Archive uploads every path and returns how many succeeded.
// It keeps going after a failed upload and returns the first error.
func (a *S3Archiver) Archive(ctx context.Context, runTimestamp string, paths []string) (int, error) {
	var (
		uploaded int
		firstErr error
	)
	for _, p := range paths {
		if err := a.upload(ctx, runTimestamp, p); err != nil {
			a.logger.Warn("Archive upload failed", "path", p, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		uploaded++
	}

	a.logger.Info("Run archived", "bucket", a.bucket, "uploaded", uploaded, "total", len(paths))
	return uploaded, firstErr
}

func (a *S3Archiver) upload(ctx context.Context, runTimestamp, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer file.Close()

	key := a.Key(runTimestamp, localPath)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s to S3: %w", key, err)
	}
	return nil
}

func contentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".xml":
		return "application/xml"
	case ".yaml":
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}
