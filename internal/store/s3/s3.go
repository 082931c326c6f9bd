// Package s3 provides a BlobStore over S3-compatible object storage
// (AWS S3, MinIO). Retrieval URLs are presigned GET requests.
package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/avoronov/harvest/internal/store"
)

const presignExpiry = 15 * time.Minute

// Test seams around the AWS SDK.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Options configures the blob store.
type Options struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
	// PathPrefix namespaces uploaded keys, e.g. "content".
	PathPrefix string
}

// BlobStore implements store.BlobStore over an S3 bucket.
type BlobStore struct {
	opts Options
}

func New(opts Options) *BlobStore {
	return &BlobStore{opts: opts}
}

func (b *BlobStore) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(b.opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			b.opts.RootUser,
			b.opts.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if b.opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(b.opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return client, nil
}

// storageKey builds a date-partitioned key under the configured prefix. The
// uuid keeps same-named uploads from colliding; the sanitized name keeps the
// key readable in bucket listings.
func (b *BlobStore) storageKey(suggestedName string) string {
	d := time.Now()
	return path.Join(b.opts.PathPrefix,
		fmt.Sprintf("%d/%02d/%02d", d.Year(), d.Month(), d.Day()),
		fmt.Sprintf("%v-%s", uuid.New(), sanitizeName(suggestedName)))
}

func (b *BlobStore) Upload(ctx context.Context, r io.Reader, suggestedName, contentType string) (*store.BlobInfo, error) {
	client, err := b.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client error: %w", err)
	}

	key := b.storageKey(suggestedName)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.opts.Bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload error: %w", err)
	}

	url, err := b.presignGet(ctx, client, key)
	if err != nil {
		return nil, fmt.Errorf("presign error: %w", err)
	}

	return &store.BlobInfo{Key: key, RetrievalURL: url}, nil
}

func (b *BlobStore) Delete(ctx context.Context, key string) error {
	client, err := b.getClient(ctx)
	if err != nil {
		return fmt.Errorf("s3 client error: %w", err)
	}

	_, err = deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	return nil
}

func (b *BlobStore) presignGet(ctx context.Context, client *s3.Client, key string) (string, error) {
	pc := newS3PresignClient(client)

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.opts.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// sanitizeName strips path separators and whitespace from a user-supplied
// file name before it is embedded into a storage key.
func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
