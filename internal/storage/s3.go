package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dukerupert/afisha"
)

// Compile-time interface check
var _ afisha.Replica = (*S3Replica)(nil)

// s3API is the subset of *s3.Client used by S3Replica.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Replica mirrors stored files into an S3 bucket under the same
// relative path, optionally below a key prefix.
type S3Replica struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Replica creates a new S3 replica.
func NewS3Replica(client s3API, bucket, prefix string) *S3Replica {
	return &S3Replica{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Put uploads a file to S3
func (r *S3Replica) Put(ctx context.Context, key string, reader io.Reader, contentType string) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(key)),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// Delete removes a file from S3
func (r *S3Replica) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (r *S3Replica) key(relativePath string) string {
	if r.prefix == "" {
		return relativePath
	}
	return path.Join(r.prefix, relativePath)
}
