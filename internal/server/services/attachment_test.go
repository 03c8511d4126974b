package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/aleksvdm/gopherchat/internal/server/config"
)

func newAttachmentService() *AttachmentService {
	return NewAttachmentService(&sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "attachments",
	})
}

func stubPresignSeams(t *testing.T) {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	origGet := presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/attachments/" + *in.Key + "?X-Amz-Signature=put"}, nil
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/attachments/" + *in.Key + "?X-Amz-Signature=get"}, nil
	}
}

func TestPresignPut_ReturnsKeyAndURL(t *testing.T) {
	stubPresignSeams(t)
	svc := newAttachmentService()

	key, uploadURL, err := svc.PresignPut(context.Background())
	if err != nil {
		t.Fatalf("PresignPut err: %v", err)
	}
	if !strings.HasPrefix(key, "uploads/") {
		t.Fatalf("key not under uploads/: %q", key)
	}
	if !strings.Contains(uploadURL, key) {
		t.Fatalf("url does not reference the key: %q", uploadURL)
	}
}

func TestPresignGet_UsesStoredKey(t *testing.T) {
	stubPresignSeams(t)
	svc := newAttachmentService()

	url, err := svc.PresignGet(context.Background(), "uploads/2025/1/1/abc")
	if err != nil {
		t.Fatalf("PresignGet err: %v", err)
	}
	if !strings.Contains(url, "uploads/2025/1/1/abc") {
		t.Fatalf("unexpected url: %q", url)
	}
}

func TestPresignPut_ConfigError(t *testing.T) {
	stubPresignSeams(t)
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no credentials")
	}
	svc := newAttachmentService()

	if _, _, err := svc.PresignPut(context.Background()); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestExtractKey(t *testing.T) {
	svc := newAttachmentService()

	tests := []struct {
		in   string
		want string
	}{
		{"s3://uploads/2025/1/1/abc", "uploads/2025/1/1/abc"},
		{"http://127.0.0.1:9000/attachments/uploads/k?X-Amz-Signature=x", "uploads/k"},
		{"uploads/bare-key", "uploads/bare-key"},
	}
	for _, tt := range tests {
		if got := svc.ExtractKey(tt.in); got != tt.want {
			t.Fatalf("ExtractKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStorageURL_RoundTripsWithExtractKey(t *testing.T) {
	svc := newAttachmentService()

	key := "uploads/2025/1/1/abc"
	if got := svc.ExtractKey(StorageURL(key)); got != key {
		t.Fatalf("round trip mismatch: %q", got)
	}
}
