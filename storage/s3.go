package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/ruteri/unified-ledger/interfaces"
)

// S3Backend implements a storage backend using Amazon S3 or compatible services.
// It supports both public read-only access and authenticated write access.
type S3Backend struct {
	client         s3iface.S3API
	writeClient    s3iface.S3API
	bucketName     string
	prefix         string
	log            *slog.Logger
	locationURI    string
	hasWriteAccess bool
}

// NewS3Backend creates a new S3 storage backend.
// If accessKey and secretKey are provided, the backend will have write access.
// Otherwise, it will be read-only for publicly accessible objects.
func NewS3Backend(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if accessKey != "" {
		uri = fmt.Sprintf("s3://%s:***@%s/%s?region=%s", accessKey, bucketName, prefix, region)
	}
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	baseCfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		baseCfg.Endpoint = aws.String(endpoint)
		baseCfg.S3ForcePathStyle = aws.Bool(true)
	}

	// Read operations need no credentials for public buckets
	baseSess, err := session.NewSession(&baseCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	readClient := s3.New(baseSess)

	hasWriteAccess := accessKey != "" && secretKey != ""
	var writeClient *s3.S3

	if hasWriteAccess {
		writeCfg := baseCfg.Copy()
		writeCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")

		writeSess, err := session.NewSession(writeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS write session: %w", err)
		}
		writeClient = s3.New(writeSess)
		readClient = writeClient
	} else {
		writeClient = readClient
		log.Warn("No S3 credentials provided - write operations may fail unless bucket is public writable")
	}

	return newS3BackendWithClients(readClient, writeClient, bucketName, prefix, uri, hasWriteAccess, log), nil
}

func newS3BackendWithClients(readClient, writeClient s3iface.S3API, bucketName, prefix, uri string, hasWriteAccess bool, log *slog.Logger) *S3Backend {
	if log == nil {
		log = slog.Default()
	}
	return &S3Backend{
		client:         readClient,
		writeClient:    writeClient,
		bucketName:     bucketName,
		prefix:         strings.Trim(prefix, "/"),
		log:            log,
		locationURI:    uri,
		hasWriteAccess: hasWriteAccess,
	}
}

// Fetch retrieves an object from S3 by its identifier and namespace.
// Returns ErrContentNotFound if the object doesn't exist.
func (b *S3Backend) Fetch(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) ([]byte, error) {
	start := time.Now()
	key := b.getObjectKey(id, ns)

	result, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			b.log.Debug("Content not found in S3",
				slog.String("bucket", b.bucketName),
				slog.String("key", key),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrContentNotFound
		}

		b.log.Error("Failed to get object from S3",
			slog.String("bucket", b.bucketName),
			slog.String("key", key),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("%w: failed to get object from S3: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	b.log.Debug("Fetched content from S3",
		slog.String("bucket", b.bucketName),
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Put uploads data under the object key for id.
func (b *S3Backend) Put(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace, data []byte) error {
	key := b.getObjectKey(id, ns)

	_, err := b.writeClient.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		if !b.hasWriteAccess {
			return fmt.Errorf("failed to upload object to S3 (no write credentials provided): %w", err)
		}
		return fmt.Errorf("%w: failed to upload object to S3: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored content in S3",
		slog.String("bucket", b.bucketName),
		slog.String("key", key),
		slog.String("contentID", id.String()))

	return nil
}

// Delete removes the object for id. S3 treats deleting a missing key as success.
func (b *S3Backend) Delete(ctx context.Context, id interfaces.ContentID, ns interfaces.Namespace) error {
	key := b.getObjectKey(id, ns)

	_, err := b.writeClient.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("%w: failed to delete object from S3: %v", interfaces.ErrBackendUnavailable, err)
	}
	return nil
}

// Available checks if the S3 backend is accessible by attempting to head the bucket.
func (b *S3Backend) Available(ctx context.Context) bool {
	start := time.Now()

	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucketName),
	})
	if err != nil {
		b.log.Warn("S3 backend unavailable",
			slog.String("bucket", b.bucketName),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return false
	}

	return true
}

// Name returns a unique identifier for this storage backend.
func (b *S3Backend) Name() string {
	return fmt.Sprintf("s3-%s", b.bucketName)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *S3Backend) LocationURI() string {
	return b.locationURI
}

// getObjectKey generates an S3 object key based on identifier and namespace.
func (b *S3Backend) getObjectKey(id interfaces.ContentID, ns interfaces.Namespace) string {
	return path.Join(b.prefix, ns.String(), id.String())
}

func isS3NotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
