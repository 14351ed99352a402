// Package s3 serves s3://bucket/key URIs from AWS S3 or an S3 compatible
// store such as MinIO. Directories are key prefixes ending in "/".
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/config"
	"github.com/ebogdum/hotfs/internal/pathutil"
)

// Scheme is the URI scheme served by this package
const Scheme = "s3"

// S3Adapter implements backends.Backend for AWS S3
type S3Adapter struct {
	client               s3iface.S3API
	defaultBucket        string
	serverSideEncryption string
	acl                  string
	kmsKeyID             string
	logger               *zap.Logger
}

// NewS3Adapter creates a new S3 backend
func NewS3Adapter(cfg config.BackendConfig, logger *zap.Logger) (*S3Adapter, error) {
	awsConfig := &aws.Config{
		Region:     aws.String(cfg.S3Region),
		DisableSSL: aws.Bool(cfg.S3DisableSSL),
	}
	if cfg.S3AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, "")
	}

	// Set custom endpoint if provided (for MinIO compatibility)
	if cfg.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.S3Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)              // Required for MinIO
		awsConfig.S3DisableContentMD5Validation = aws.Bool(true) // Disable MD5 for MinIO
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	a := newAdapter(s3.New(sess), cfg, logger)

	// Verify access to the default bucket, if any
	if cfg.S3BucketName != "" {
		if _, err := a.client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(cfg.S3BucketName)}); err != nil {
			return nil, fmt.Errorf("failed to access S3 bucket %s: %w", cfg.S3BucketName, err)
		}
	}

	return a, nil
}

func newAdapter(client s3iface.S3API, cfg config.BackendConfig, logger *zap.Logger) *S3Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Adapter{
		client:               client,
		defaultBucket:        cfg.S3BucketName,
		serverSideEncryption: cfg.S3ServerSideEncryption,
		acl:                  cfg.S3ACL,
		kmsKeyID:             cfg.S3KMSKeyID,
		logger:               logger,
	}
}

func (a *S3Adapter) Scheme() string {
	return Scheme
}

// Resolve returns a handle for s3://bucket/key. Without a host the
// configured default bucket is used. Keys that are neither objects nor
// prefixes resolve as files unless the URI ends in "/".
func (a *S3Adapter) Resolve(ctx context.Context, uri *url.URL) (backends.File, error) {
	if uri == nil {
		return nil, backends.ErrInvalidInput
	}
	bucket := uri.Host
	if bucket == "" {
		bucket = a.defaultBucket
	}
	if bucket == "" {
		return nil, fmt.Errorf("%w: no bucket in %s", backends.ErrInvalidInput, uri.Redacted())
	}
	return a.resolve(ctx, bucket, uri.Path)
}

func (a *S3Adapter) resolve(ctx context.Context, bucket, p string) (*File, error) {
	dirHint := strings.HasSuffix(p, "/")
	cleaned, err := pathutil.Clean(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", backends.ErrInvalidInput, p, err)
	}
	key := pathToKey(cleaned)
	if key == "" || dirHint {
		return a.newFile(bucket, key, true), nil
	}

	// A key may be an object or, failing that, a prefix
	if _, err := a.head(ctx, bucket, key); err == nil {
		return a.newFile(bucket, key, false), nil
	} else if !isS3NotFound(err) {
		return nil, backends.NewError("resolve", "s3://"+bucket+"/"+key, err)
	}
	isPrefix, err := a.hasPrefix(ctx, bucket, key+"/")
	if err != nil {
		return nil, backends.NewError("resolve", "s3://"+bucket+"/"+key, err)
	}
	return a.newFile(bucket, key, isPrefix), nil
}

// Close closes any resources used by the S3 adapter
func (a *S3Adapter) Close() error {
	// No resources to close for S3
	return nil
}

func (a *S3Adapter) head(ctx context.Context, bucket, key string) (*s3.HeadObjectOutput, error) {
	return a.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
}

// hasPrefix reports whether any object key starts with prefix
func (a *S3Adapter) hasPrefix(ctx context.Context, bucket, prefix string) (bool, error) {
	found := false
	err := a.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(1),
	}, func(page *s3.ListObjectsV2Output, last bool) bool {
		found = len(page.Contents) > 0 || len(page.CommonPrefixes) > 0
		return false
	})
	return found, err
}

// pathToKey converts a cleaned virtual path to an S3 key
func pathToKey(p string) string {
	return strings.TrimPrefix(p, "/")
}

// keyToPath converts an S3 key to a virtual path
func keyToPath(key string) string {
	if key == "" {
		return "/"
	}
	return "/" + strings.TrimPrefix(key, "/")
}

// isS3NotFound checks if an error indicates the object was not found
func isS3NotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return err != nil && (strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound"))
}
