package autodownload

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dataquery-sdk/dataquery/utils"
)

// S3Archiver uploads completed downloads to an S3 bucket under an optional
// key prefix.
type S3Archiver struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

func NewS3Archiver(ctx context.Context, bucket, prefix string) (*S3Archiver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("archive requires a bucket name")
	}
	profile := os.Getenv("AWS_PROFILE")
	if profile == "" {
		profile = "default"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithSharedConfigProfile(profile), awsconfig.WithRetryMode("adaptive"))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %v", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.DisableLogOutputChecksumValidationSkipped = true
	})
	return &S3Archiver{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}, nil
}

func (a *S3Archiver) Archive(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("error opening file for archive: %v", err)
	}
	defer f.Close()
	key := filepath.Base(localPath)
	if a.prefix != "" {
		key = path.Join(a.prefix, key)
	}
	log := utils.GetLogger("s3-archive")
	log.Debug().Str("bucket", a.bucket).Str("key", key).Msg("Uploading file")
	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("error uploading %s to s3://%s/%s: %v", localPath, a.bucket, key, err)
	}
	log.Info().Str("bucket", a.bucket).Str("key", key).Msg("File archived")
	return nil
}
