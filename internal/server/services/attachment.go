package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	sc "github.com/aleksvdm/gopherchat/internal/server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// storageScheme prefixes object keys when they are stored inside message
// content, so presigned URLs are never persisted (they expire).
const storageScheme = "s3://"

const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// AttachmentService issues presigned URLs for message attachments (images)
// against an S3-compatible object store.
type AttachmentService struct {
	config *sc.Config
}

func NewAttachmentService(config *sc.Config) *AttachmentService {
	return &AttachmentService{config: config}
}

func randomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("uploads/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *AttachmentService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignPut returns a fresh object key and a presigned upload URL for it.
func (s *AttachmentService) PresignPut(ctx context.Context) (string, string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := randomStorageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))

	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// PresignGet returns a presigned download URL for an existing object key.
func (s *AttachmentService) PresignGet(ctx context.Context, key string) (string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// ExtractKey recovers the object key from either the storage form
// ("s3://uploads/...") or a presigned URL pointing into the bucket.
func (s *AttachmentService) ExtractKey(rawURL string) string {
	if strings.HasPrefix(rawURL, storageScheme) {
		return strings.TrimPrefix(rawURL, storageScheme)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	key := strings.TrimPrefix(parsed.Path, "/")
	// path-style URLs carry the bucket as the first path segment
	key = strings.TrimPrefix(key, s.config.S3Bucket+"/")
	return key
}

// StorageURL renders an object key in the persistent storage form.
func StorageURL(key string) string {
	return storageScheme + key
}
