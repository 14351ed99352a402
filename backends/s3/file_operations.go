package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/internal/pathutil"
	"github.com/ebogdum/hotfs/metrics"
)

// File is a handle on an object or prefix in a bucket
type File struct {
	adapter *S3Adapter
	bucket  string
	key     string // no leading or trailing slash, "" for the bucket root
	dir     bool
	uri     *url.URL
}

func (a *S3Adapter) newFile(bucket, key string, dir bool) *File {
	return &File{
		adapter: a,
		bucket:  bucket,
		key:     key,
		dir:     dir,
		uri:     &url.URL{Scheme: Scheme, Host: bucket, Path: pathutil.NormalizeDir(keyToPath(key), dir)},
	}
}

func (f *File) URI() *url.URL {
	u := *f.uri
	return &u
}

func (f *File) Scheme() string    { return Scheme }
func (f *File) Name() string      { return pathutil.NameFromPath(keyToPath(f.key)) }
func (f *File) BaseName() string  { return pathutil.BaseName(f.Name()) }
func (f *File) Extension() string { return pathutil.Extension(f.Name()) }
func (f *File) Path() string      { return f.uri.Path }
func (f *File) String() string    { return f.uri.String() }

// Bucket returns the bucket holding the object
func (f *File) Bucket() string { return f.bucket }

// Key returns the object key, with a trailing slash for prefixes
func (f *File) Key() string {
	if f.dir && f.key != "" {
		return f.key + "/"
	}
	return f.key
}

func (f *File) fail(op string, err error) error {
	if isS3NotFound(err) {
		err = fmt.Errorf("%w: %v", backends.ErrNotFound, err)
	}
	return backends.NewError(op, f.uri.String(), err)
}

// Open opens the object for reading
func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	metrics.RecordBackendOp(Scheme, "open")
	if f.dir {
		return nil, f.fail("open", backends.ErrIsDirectory)
	}

	result, err := f.adapter.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key),
	})
	if err != nil {
		return nil, f.fail("open", err)
	}

	f.adapter.logger.Debug("Object opened from S3",
		zap.String("bucket", f.bucket),
		zap.String("key", f.key))

	return result.Body, nil
}

// OpenWrite buffers the content and uploads it when the writer is closed
func (f *File) OpenWrite(ctx context.Context) (io.WriteCloser, error) {
	metrics.RecordBackendOp(Scheme, "write")
	if f.dir {
		return nil, f.fail("write", backends.ErrIsDirectory)
	}
	return &objectWriter{ctx: ctx, file: f}, nil
}

type objectWriter struct {
	bytes.Buffer
	ctx    context.Context
	file   *File
	closed bool
}

func (w *objectWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.put(w.ctx, w.file.key, w.Bytes())
}

// put uploads data under key with the configured encryption and ACL
func (f *File) put(ctx context.Context, key string, data []byte) error {
	a := f.adapter
	putInput := &s3.PutObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}

	// Set server-side encryption if configured
	if a.serverSideEncryption != "" {
		putInput.ServerSideEncryption = aws.String(a.serverSideEncryption)
		if a.serverSideEncryption == "aws:kms" && a.kmsKeyID != "" {
			putInput.SSEKMSKeyId = aws.String(a.kmsKeyID)
		}
	}

	// Set ACL if configured
	if a.acl != "" {
		putInput.ACL = aws.String(a.acl)
	}

	if !strings.HasSuffix(key, "/") {
		putInput.ContentType = aws.String(getContentType(key))
	}

	if _, err := a.client.PutObjectWithContext(ctx, putInput); err != nil {
		return f.fail("write", err)
	}

	a.logger.Debug("Object written to S3",
		zap.String("bucket", f.bucket),
		zap.String("key", key),
		zap.Int("size", len(data)))

	return nil
}

func (f *File) LastModified(ctx context.Context) (int64, error) {
	if f.dir {
		// Prefixes carry no timestamp unless a marker object exists
		result, err := f.adapter.head(ctx, f.bucket, f.Key())
		if err != nil || result.LastModified == nil {
			return 0, nil
		}
		return result.LastModified.UnixMilli(), nil
	}

	result, err := f.adapter.head(ctx, f.bucket, f.key)
	if err != nil {
		return 0, f.fail("stat", err)
	}
	if result.LastModified == nil {
		return 0, nil
	}
	return result.LastModified.UnixMilli(), nil
}

// SetLastModified is not supported; S3 objects are immutable
func (f *File) SetLastModified(ctx context.Context, ms int64) error {
	return f.fail("chtimes", backends.ErrNotSupported)
}

func (f *File) Length(ctx context.Context) (int64, error) {
	if f.dir {
		return 0, nil
	}
	result, err := f.adapter.head(ctx, f.bucket, f.key)
	if err != nil {
		return 0, f.fail("stat", err)
	}
	return aws.Int64Value(result.ContentLength), nil
}

func (f *File) IsDirectory(ctx context.Context) (bool, error) { return f.dir, nil }
func (f *File) IsFile(ctx context.Context) (bool, error)      { return !f.dir, nil }

func (f *File) IsVisible(ctx context.Context) (bool, error) {
	return !strings.HasPrefix(f.Name(), "."), nil
}

func (f *File) Exists(ctx context.Context) (bool, error) {
	if !f.dir {
		if _, err := f.adapter.head(ctx, f.bucket, f.key); err != nil {
			if isS3NotFound(err) {
				return false, nil
			}
			return false, f.fail("stat", err)
		}
		return true, nil
	}

	if f.key == "" {
		_, err := f.adapter.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(f.bucket)})
		if err != nil {
			if isS3NotFound(err) {
				return false, nil
			}
			return false, f.fail("stat", err)
		}
		return true, nil
	}

	found, err := f.adapter.hasPrefix(ctx, f.bucket, f.Key())
	if err != nil {
		return false, f.fail("stat", err)
	}
	return found, nil
}

func (f *File) Parent(ctx context.Context) (backends.File, error) {
	parent := pathToKey(pathutil.ParentDir(keyToPath(f.key)))
	return f.adapter.newFile(f.bucket, parent, true), nil
}

func (f *File) List(ctx context.Context, grab backends.GrabFilter, move backends.MoveFilter, cmp backends.Comparator) ([]backends.File, error) {
	return backends.List(ctx, f, grab, move, cmp)
}

// Delete removes an object, or an empty prefix and its marker
func (f *File) Delete(ctx context.Context) error {
	metrics.RecordBackendOp(Scheme, "delete")
	if f.dir {
		return f.deleteDirectory(ctx)
	}

	if ok, err := f.Exists(ctx); err != nil {
		return err
	} else if !ok {
		return f.fail("delete", backends.ErrNotFound)
	}

	_, err := f.adapter.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.key),
	})
	if err != nil {
		return f.fail("delete", err)
	}

	f.adapter.logger.Debug("Object deleted from S3",
		zap.String("bucket", f.bucket),
		zap.String("key", f.key))

	return nil
}

// Rename copies the object, or every object under the prefix, to target
// and deletes the source
func (f *File) Rename(ctx context.Context, target backends.File) error {
	if target == nil {
		return backends.ErrInvalidInput
	}
	dst, ok := target.(*File)
	if !backends.SameBackend(f, target) || !ok || dst.adapter != f.adapter {
		return fmt.Errorf("%w: %s -> %s", backends.ErrCrossBackend, f.uri, backends.Key(target))
	}
	metrics.RecordBackendOp(Scheme, "rename")

	if !f.dir {
		if err := f.copyObject(ctx, f.key, dst.bucket, dst.key); err != nil {
			return err
		}
		_, err := f.adapter.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(f.bucket),
			Key:    aws.String(f.key),
		})
		if err != nil {
			return f.fail("rename", err)
		}
		return nil
	}
	return f.renameDirectory(ctx, dst)
}

func (f *File) copyObject(ctx context.Context, srcKey, dstBucket, dstKey string) error {
	source := (&url.URL{Path: f.bucket + "/" + srcKey}).EscapedPath()
	_, err := f.adapter.client.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(source),
	})
	if err != nil {
		return f.fail("copy", err)
	}
	return nil
}

func (f *File) Resolve(ctx context.Context, rel string) (backends.File, error) {
	return f.adapter.resolve(ctx, f.bucket, keyToPath(f.key)+"/"+rel)
}

func (f *File) Close() error {
	return nil
}

// getContentType returns the MIME type based on file extension
func getContentType(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".html", ".htm":
		return "text/html"
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".txt":
		return "text/plain"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
