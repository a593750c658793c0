package objectstore

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"go-channel-identity/internal/media"
	"go-channel-identity/internal/model"
)

type S3Config struct {
	Region        string
	Endpoint      string
	Bucket        string
	AccessKey     string
	SecretKey     string
	KeyPrefix     string
	PublicBaseURL string
}

// s3API is the slice of *s3.Client the store needs.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store uploads media to an S3-compatible bucket (AWS or MinIO). Object
// keys are <prefix>/<publicID> with no extension, so the public id is always
// recoverable from the object URL.
type S3Store struct {
	client  s3API
	bucket  string
	prefix  string
	baseURL string
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg), nil
}

func newS3Store(client s3API, cfg S3Config) *S3Store {
	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		switch {
		case cfg.Endpoint != "":
			baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		default:
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.KeyPrefix, "/"),
		baseURL: baseURL,
	}
}

func (s *S3Store) Upload(ctx context.Context, localPath string) (model.MediaRef, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return model.MediaRef{}, fmt.Errorf("open upload source: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return model.MediaRef{}, fmt.Errorf("stat upload source: %w", err)
	}

	contentType, err := media.DetectContentType(file)
	if err != nil {
		return model.MediaRef{}, fmt.Errorf("detect content type: %w", err)
	}

	publicID := uuid.NewString()
	key := s.key(publicID)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return model.MediaRef{}, fmt.Errorf("put object %q: %w", key, err)
	}

	return model.MediaRef{URL: s.baseURL + "/" + key, PublicID: publicID}, nil
}

func (s *S3Store) Delete(ctx context.Context, publicID string) error {
	if strings.TrimSpace(publicID) == "" || strings.ContainsAny(publicID, `/\`) {
		return fmt.Errorf("invalid object id %q", publicID)
	}

	key := s.key(publicID)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}

	return nil
}

func (s *S3Store) key(publicID string) string {
	if s.prefix == "" {
		return publicID
	}
	return s.prefix + "/" + publicID
}
