package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/metrics"
)

// ReadDir lists the objects and common prefixes directly below the prefix
func (f *File) ReadDir(ctx context.Context) ([]backends.File, error) {
	metrics.RecordBackendOp(Scheme, "readdir")
	if !f.dir {
		return nil, f.fail("readdir", fmt.Errorf("not a directory"))
	}

	prefix := f.Key()
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(f.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}

	var children []backends.File
	err := f.adapter.client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, last bool) bool {
		// Process directory objects (common prefixes)
		for _, commonPrefix := range page.CommonPrefixes {
			if commonPrefix.Prefix == nil {
				continue
			}
			key := strings.TrimSuffix(*commonPrefix.Prefix, "/")
			if key == "" || key+"/" == prefix {
				continue
			}
			children = append(children, f.adapter.newFile(f.bucket, key, true))
		}

		// Process file objects
		for _, object := range page.Contents {
			if object.Key == nil {
				continue
			}
			// Skip directory markers, including the one for this prefix
			if strings.HasSuffix(*object.Key, "/") {
				continue
			}
			name := strings.TrimPrefix(*object.Key, prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			children = append(children, f.adapter.newFile(f.bucket, *object.Key, false))
		}
		return true
	})
	if err != nil {
		return nil, f.fail("readdir", err)
	}

	return children, nil
}

// Mkdir creates a directory marker object
func (f *File) Mkdir(ctx context.Context) error {
	metrics.RecordBackendOp(Scheme, "mkdir")
	if f.key == "" {
		return nil
	}
	if !f.dir {
		if _, err := f.adapter.head(ctx, f.bucket, f.key); err == nil {
			return f.fail("mkdir", fmt.Errorf("exists as an object"))
		}
	}
	if err := f.put(ctx, f.key+"/", nil); err != nil {
		return err
	}

	f.adapter.logger.Debug("Directory marker created in S3",
		zap.String("bucket", f.bucket),
		zap.String("key", f.key+"/"))

	return nil
}

// Mkdirs is Mkdir: prefixes need no parents
func (f *File) Mkdirs(ctx context.Context) error {
	return f.Mkdir(ctx)
}

func (f *File) deleteDirectory(ctx context.Context) error {
	if f.key == "" {
		return f.fail("delete", backends.ErrNotSupported)
	}
	prefix := f.Key()

	found, empty := false, true
	err := f.adapter.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(f.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(2),
	}, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, object := range page.Contents {
			found = true
			if aws.StringValue(object.Key) != prefix {
				empty = false
			}
		}
		return false
	})
	if err != nil {
		return f.fail("delete", err)
	}
	if !found {
		return f.fail("delete", backends.ErrNotFound)
	}
	if !empty {
		return f.fail("delete", fmt.Errorf("directory not empty"))
	}

	_, err = f.adapter.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(prefix),
	})
	if err != nil && !isS3NotFound(err) {
		return f.fail("delete", err)
	}
	return nil
}

// renameDirectory moves every object under the prefix
func (f *File) renameDirectory(ctx context.Context, dst *File) error {
	prefix := f.Key()
	dstPrefix := dst.key + "/"
	if dst.bucket == f.bucket && strings.HasPrefix(dstPrefix, prefix) {
		return f.fail("rename", backends.ErrInvalidInput)
	}

	var keys []string
	err := f.adapter.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(f.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, object := range page.Contents {
			keys = append(keys, aws.StringValue(object.Key))
		}
		return true
	})
	if err != nil {
		return f.fail("rename", err)
	}
	if len(keys) == 0 {
		return f.fail("rename", backends.ErrNotFound)
	}

	for _, key := range keys {
		if err := f.copyObject(ctx, key, dst.bucket, dstPrefix+strings.TrimPrefix(key, prefix)); err != nil {
			return err
		}
	}
	for _, key := range keys {
		_, err := f.adapter.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(f.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return f.fail("rename", err)
		}
	}
	return nil
}
