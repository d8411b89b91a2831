package writer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/maxwell-lv/mootdx/config"
	"github.com/maxwell-lv/mootdx/logger"
)

// S3Uploader mirrors parquet batches into an S3 bucket.
type S3Uploader struct {
	cfg    *appconfig.Config
	client *s3.Client
	log    *logger.Entry
}

// NewS3Uploader builds the AWS client from configuration, preferring static
// credentials from the config file over the ambient credential chain.
func NewS3Uploader(cfg *appconfig.Config) (*S3Uploader, error) {
	log := logger.GetLogger().WithComponent("s3_uploader")
	ctx := context.Background()

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Storage.S3.Region),
	}
	if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Storage.S3.AccessKeyID,
				cfg.Storage.S3.SecretAccessKey,
				"",
			),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsConfig.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Storage.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.S3.Endpoint)
		}
		o.UsePathStyle = cfg.Storage.S3.PathStyle
	})

	log.WithFields(logger.Fields{
		"bucket":     cfg.Storage.S3.Bucket,
		"region":     cfg.Storage.S3.Region,
		"endpoint":   cfg.Storage.S3.Endpoint,
		"path_style": cfg.Storage.S3.PathStyle,
	}).Info("s3 uploader initialized")

	return &S3Uploader{cfg: cfg, client: client, log: log}, nil
}

// Upload puts one object under the configured bucket and prefix.
func (u *S3Uploader) Upload(key string, data []byte) error {
	if prefix := u.cfg.Storage.S3.Prefix; prefix != "" {
		key = prefix + "/" + key
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Storage.S3.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"content-type":   "parquet",
			"compression":    u.cfg.Writer.Compression,
			"mootdx-version": u.cfg.Mootdx.Version,
		},
	}

	if _, err := u.client.PutObject(context.Background(), input); err != nil {
		return fmt.Errorf("failed to upload to S3 bucket %s: %w", u.cfg.Storage.S3.Bucket, err)
	}

	u.log.WithFields(logger.Fields{"s3_key": key, "data_size": len(data)}).Debug("uploaded to S3")
	return nil
}
