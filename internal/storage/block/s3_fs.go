package block

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3FS
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3FS implements the Storage interface for Amazon S3
type S3FS struct {
	client S3API
	bucket string
	prefix string
}

// NewS3FS creates a new S3 storage from the default AWS credential chain
func NewS3FS(ctx context.Context, cfg Config) (*S3FS, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required for S3 storage")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1" // Default region
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3FSWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

// NewS3FSWithClient wraps an existing client
func NewS3FSWithClient(client S3API, bucket, prefix string) *S3FS {
	return &S3FS{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Reader returns a reader for the specified path
func (s3fs *S3FS) Reader(ctx context.Context, path string) (io.ReadCloser, error) {
	key, err := s3fs.getKey("get", path)
	if err != nil {
		return nil, err
	}

	output, err := s3fs.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s3fs.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, &StorageError{Op: "get", Path: path, Err: errNotFound}
		}
		return nil, &StorageError{Op: "get", Path: path, Err: err}
	}

	return output.Body, nil
}

// Writer buffers the object and uploads it on Close
func (s3fs *S3FS) Writer(ctx context.Context, path string) (io.WriteCloser, error) {
	key, err := s3fs.getKey("put", path)
	if err != nil {
		return nil, err
	}
	return &s3Writer{
		s3fs: s3fs,
		key:  key,
		path: path,
		ctx:  ctx,
	}, nil
}

// Stat returns metadata for the specified path
func (s3fs *S3FS) Stat(ctx context.Context, path string) (*Metadata, error) {
	key, err := s3fs.getKey("head", path)
	if err != nil {
		return nil, err
	}

	output, err := s3fs.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s3fs.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, &StorageError{Op: "head", Path: path, Err: errNotFound}
		}
		return nil, &StorageError{Op: "head", Path: path, Err: err}
	}

	metadata := &Metadata{
		Path:        path,
		Size:        aws.ToInt64(output.ContentLength),
		ETag:        aws.ToString(output.ETag),
		ContentType: aws.ToString(output.ContentType),
	}
	if output.LastModified != nil {
		metadata.ModTime = output.LastModified.Unix()
	}

	return metadata, nil
}

// List returns metadata for all objects with the specified prefix
func (s3fs *S3FS) List(ctx context.Context, prefix string) ([]*Metadata, error) {
	key := prefix
	if s3fs.prefix != "" {
		key = s3fs.prefix + "/" + prefix
	}

	var results []*Metadata
	paginator := s3.NewListObjectsV2Paginator(s3fs.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s3fs.bucket),
		Prefix: aws.String(key),
	})

	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &StorageError{Op: "list", Path: prefix, Err: err}
		}

		for _, object := range output.Contents {
			metadata := &Metadata{
				Path: s3fs.getRelativePath(aws.ToString(object.Key)),
				Size: aws.ToInt64(object.Size),
				ETag: aws.ToString(object.ETag),
			}
			if object.LastModified != nil {
				metadata.ModTime = object.LastModified.Unix()
			}
			results = append(results, metadata)
		}
	}

	return results, nil
}

// Delete removes the object at the specified path
func (s3fs *S3FS) Delete(ctx context.Context, path string) error {
	key, err := s3fs.getKey("delete", path)
	if err != nil {
		return err
	}

	_, err = s3fs.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s3fs.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &StorageError{Op: "delete", Path: path, Err: err}
	}

	return nil
}

// Health checks that the bucket can be listed
func (s3fs *S3FS) Health(ctx context.Context) error {
	_, err := s3fs.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s3fs.bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("S3 health check failed: %w", err)
	}

	return nil
}

// Location returns the s3:// URI of path
func (s3fs *S3FS) Location(path string) string {
	key, err := s3fs.getKey("locate", path)
	if err != nil {
		key = path
	}
	return "s3://" + s3fs.bucket + "/" + key
}

// Helper methods

func (s3fs *S3FS) getKey(op, path string) (string, error) {
	clean, err := cleanPath(op, path)
	if err != nil {
		return "", err
	}
	if s3fs.prefix == "" {
		return clean, nil
	}
	return s3fs.prefix + "/" + clean, nil
}

func (s3fs *S3FS) getRelativePath(key string) string {
	if s3fs.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, s3fs.prefix+"/")
}

func isS3NotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

// s3Writer implements io.WriteCloser for S3 objects
type s3Writer struct {
	s3fs   *S3FS
	key    string
	path   string
	ctx    context.Context
	buffer bytes.Buffer
}

func (s3w *s3Writer) Write(p []byte) (n int, err error) {
	return s3w.buffer.Write(p)
}

func (s3w *s3Writer) Close() error {
	_, err := s3w.s3fs.client.PutObject(s3w.ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s3w.s3fs.bucket),
		Key:         aws.String(s3w.key),
		Body:        bytes.NewReader(s3w.buffer.Bytes()),
		ContentType: aws.String(contentTypeFor(s3w.key)),
	})
	if err != nil {
		return &StorageError{Op: "put", Path: s3w.path, Err: err}
	}
	return nil
}
