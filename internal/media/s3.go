package media

import (
    "context"
    "errors"
    "fmt"
    "io"
    "strings"

    "github.com/aws/aws-sdk-go-v2/aws"
    awsconfig "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/service/s3"
    "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used by S3Storage.
type S3API interface {
    PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
    GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
    DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
    HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Storage keeps files as objects under prefix in bucket.
type S3Storage struct {
    api    S3API
    bucket string
    prefix string
}

// NewS3Storage builds a client from the default AWS credential chain.
func NewS3Storage(ctx context.Context, region, bucket, prefix string) (*S3Storage, error) {
    cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
    if err != nil {
        return nil, fmt.Errorf("failed to load AWS config: %w", err)
    }
    return NewS3StorageWithAPI(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3StorageWithAPI is NewS3Storage with an injected client.
func NewS3StorageWithAPI(api S3API, bucket, prefix string) *S3Storage {
    if prefix != "" && !strings.HasSuffix(prefix, "/") {
        prefix += "/"
    }
    return &S3Storage{api: api, bucket: bucket, prefix: prefix}
}

func (s *S3Storage) key(name string) *string { return aws.String(s.prefix + name) }

func (s *S3Storage) Save(ctx context.Context, name, contentType string, r io.Reader) error {
    if err := checkName(name); err != nil {
        return err
    }
    _, err := s.api.PutObject(ctx, &s3.PutObjectInput{
        Bucket:      aws.String(s.bucket),
        Key:         s.key(name),
        Body:        r,
        ContentType: aws.String(contentType),
    })
    if err != nil {
        return fmt.Errorf("failed to upload to S3: %w", err)
    }
    return nil
}

func (s *S3Storage) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
    if err := checkName(name); err != nil {
        return nil, "", err
    }
    out, err := s.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: s.key(name)})
    if err != nil {
        var nsk *types.NoSuchKey
        if errors.As(err, &nsk) {
            return nil, "", ErrNotFound
        }
        return nil, "", err
    }
    ct := aws.ToString(out.ContentType)
    if ct == "" {
        ct = "application/octet-stream"
    }
    return out.Body, ct, nil
}

// Delete removes the object.  S3 deletes are idempotent, so existence is
// checked first to report ErrNotFound like DiskStorage does.
func (s *S3Storage) Delete(ctx context.Context, name string) error {
    if err := checkName(name); err != nil {
        return err
    }
    _, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: s.key(name)})
    if err != nil {
        var nf *types.NotFound
        if errors.As(err, &nf) {
            return ErrNotFound
        }
        return err
    }
    _, err = s.api.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: s.key(name)})
    return err
}
