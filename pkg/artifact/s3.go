package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the part of the S3 client the sink uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config selects the bucket and, optionally, static credentials and a
// custom endpoint for S3-compatible stores.
type S3Config struct {
	Bucket          string `yaml:"bucket" toml:"bucket"`
	Prefix          string `yaml:"prefix" toml:"prefix"`
	Region          string `yaml:"region" toml:"region"`
	Endpoint        string `yaml:"endpoint" toml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id" toml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" toml:"secret_access_key"`
}

// S3Sink writes artifacts as objects under a key prefix.
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewS3Sink wraps an existing client.
func NewS3Sink(client PutObjectAPI, bucket, prefix string) (*S3Sink, error) {
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	return &S3Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// NewS3SinkFromConfig loads the default AWS configuration chain, overridden
// by any static credentials, region and endpoint in cfg.
func NewS3SinkFromConfig(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Sink(client, cfg.Bucket, cfg.Prefix)
}

func (s *S3Sink) Kind() string { return "s3" }

// Put uploads data and returns its s3:// URL.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	key := clean
	if s.prefix != "" {
		key = path.Join(s.prefix, clean)
	}

	contentType := "application/json"
	if strings.HasSuffix(clean, CompressedExt) {
		contentType = "application/x-snappy"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
