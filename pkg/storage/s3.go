package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Options struct {
	Bucket string
	Region string
	// Key and Secret are optional; the default AWS credential chain is used
	// when they are empty.
	Key, Secret string
	// Endpoint targets MinIO, R2 or Spaces; empty for AWS.
	Endpoint string
	BaseURL  string
}

// S3 stores objects in an S3-compatible bucket.
type S3 struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3(ctx context.Context, o S3Options) (*S3, error) {
	if o.Bucket == "" {
		return nil, errors.New("storage/s3: bucket is not configured")
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(o.Region)}
	if o.Key != "" && o.Secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.Key, o.Secret, ""),
		))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage/s3: load config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if o.Endpoint != "" {
		clientOpts = append(clientOpts, func(so *s3.Options) {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		})
	}

	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", o.Bucket, o.Region)
	}

	return &S3{client: s3.NewFromConfig(cfg, clientOpts...), bucket: o.Bucket, baseURL: base}, nil
}

func (d *S3) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
		Body:   r,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := d.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("storage/s3: put %s: %w", key, err)
	}
	return nil
}

func (d *S3) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	var missing *types.NoSuchKey
	if errors.As(err, &missing) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage/s3: get %s: %w", key, err)
	}
	return out.Body, nil
}

func (d *S3) Delete(ctx context.Context, key string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage/s3: delete %s: %w", key, err)
	}
	return nil
}

func (d *S3) URL(key string) string {
	return d.baseURL + "/" + strings.TrimLeft(key, "/")
}
