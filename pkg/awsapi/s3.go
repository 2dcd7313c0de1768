package awsapi

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3ObjectStore fetches JSON documents referenced by s3:// URLs.
type S3ObjectStore struct {
	api s3iface.S3API
}

func NewS3ObjectStore(p client.ConfigProvider) *S3ObjectStore {
	return &S3ObjectStore{api: s3.New(p)}
}

// NewS3ObjectStoreWithAPI wires an explicit client, used by tests.
func NewS3ObjectStoreWithAPI(api s3iface.S3API) *S3ObjectStore {
	return &S3ObjectStore{api: api}
}

func (s *S3ObjectStore) GetJSON(ctx context.Context, objectURL string) ([]byte, error) {
	bucket, key, err := parseS3URL(objectURL)
	if err != nil {
		return nil, err
	}

	output, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectURL, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", objectURL, err)
	}

	return data, nil
}

func parseS3URL(objectURL string) (string, string, error) {
	parsed, err := url.Parse(objectURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid object URL %q: %w", objectURL, err)
	}

	if parsed.Scheme != "s3" || parsed.Host == "" {
		return "", "", fmt.Errorf("object URL %q is not an s3:// URL", objectURL)
	}

	key := strings.TrimPrefix(parsed.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("object URL %q has no key", objectURL)
	}

	return parsed.Host, key, nil
}
