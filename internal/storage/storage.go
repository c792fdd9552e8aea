package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Client abstracts the S3 API calls the deployer makes.
type S3Client interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// maxKeysPerBatch is the S3 limit for a single DeleteObjects request.
// See: https://docs.aws.amazon.com/AmazonS3/latest/API/API_DeleteObjects.html
const maxKeysPerBatch = 1000

// Bucket uploads to and deletes from one S3 bucket.
type Bucket struct {
	client S3Client
	name   string
}

// NewBucket returns a Bucket for the named bucket.
func NewBucket(client S3Client, name string) *Bucket {
	return &Bucket{client: client, name: name}
}

// Check verifies the bucket exists and is reachable with the current
// credentials.
func (b *Bucket) Check(ctx context.Context) error {
	if _, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &b.name}); err != nil {
		return fmt.Errorf("checking bucket %s: %w", b.name, err)
	}
	return nil
}

// Upload writes body to key as a publicly readable object.
func (b *Bucket) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: &b.name,
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := b.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("putting %s: %w", key, err)
	}
	return nil
}

// Delete removes keys from the bucket. Large deletes are split into
// multiple requests to respect the S3 limit.
func (b *Bucket) Delete(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += maxKeysPerBatch {
		end := min(start+maxKeysPerBatch, len(keys))

		objects := make([]s3types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, s3types.ObjectIdentifier{Key: aws.String(key)})
		}

		resp, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: &b.name,
			Delete: &s3types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("deleting objects (batch %d-%d of %d): %w", start, end, len(keys), err)
		}
		if len(resp.Errors) > 0 {
			return deleteErrors(resp.Errors)
		}
	}
	return nil
}

func deleteErrors(errs []s3types.Error) error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("%s: %s %s",
			aws.ToString(e.Key), aws.ToString(e.Code), aws.ToString(e.Message)))
	}
	return fmt.Errorf("deleting objects: %d failed: %s", len(errs), strings.Join(msgs, "; "))
}
