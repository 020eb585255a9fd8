package fsxs3

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/Abraxas-365/contractorconnect/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// API is the subset of *s3.Client the file system uses.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3FileSystem implements fsx.FileSystem on a single bucket.
type S3FileSystem struct {
	client API
	bucket string
	prefix string
}

// NewS3FileSystem stores objects under prefix (may be empty) in bucket.
func NewS3FileSystem(client API, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *S3FileSystem) key(p string) (string, error) {
	cleaned, err := fsx.CleanPath(p)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return cleaned, nil
	}
	return s.prefix + "/" + cleaned, nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func (s *S3FileSystem) ReadFileStream(ctx context.Context, p string) (io.ReadCloser, fsx.FileInfo, error) {
	key, err := s.key(p)
	if err != nil {
		return nil, fsx.FileInfo{}, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return nil, fsx.FileInfo{}, fsx.NotFound(p)
		}
		return nil, fsx.FileInfo{}, fsx.Failure(fsx.ErrReadFailed, p, err)
	}
	info := fsx.FileInfo{
		Path:        p,
		Size:        aws.ToInt64(out.ContentLength),
		ModTime:     aws.ToTime(out.LastModified),
		ContentType: aws.ToString(out.ContentType),
	}
	if info.ContentType == "" {
		info.ContentType = fsx.ContentTypeFor(p)
	}
	return out.Body, info, nil
}

func (s *S3FileSystem) Exists(ctx context.Context, p string) (bool, error) {
	key, err := s.key(p)
	if err != nil {
		return false, err
	}
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fsx.Failure(fsx.ErrReadFailed, p, err)
	}
	return true, nil
}

func (s *S3FileSystem) WriteFileStream(ctx context.Context, p string, r io.Reader, contentType string) error {
	key, err := s.key(p)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = fsx.ContentTypeFor(p)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        r,
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fsx.Failure(fsx.ErrWriteFailed, p, err)
	}
	return nil
}

func (s *S3FileSystem) DeleteFile(ctx context.Context, p string) error {
	key, err := s.key(p)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return fsx.Failure(fsx.ErrDeleteFailed, p, err)
	}
	return nil
}

// DeletePrefix lists and deletes every key under prefix, one page at a time.
func (s *S3FileSystem) DeletePrefix(ctx context.Context, prefix string) error {
	key, err := s.key(prefix)
	if err != nil {
		return err
	}
	key += "/"

	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &key,
			ContinuationToken: token,
		})
		if err != nil {
			return fsx.Failure(fsx.ErrDeleteFailed, prefix, err)
		}
		for _, obj := range out.Contents {
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: obj.Key}); err != nil {
				return fsx.Failure(fsx.ErrDeleteFailed, aws.ToString(obj.Key), err)
			}
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			return nil
		}
		token = out.NextContinuationToken
	}
}
