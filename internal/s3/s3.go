package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Key prefixes, one per kind of uploaded image.
const (
	BANNER      = "banners/"
	CATEGORY    = "categories/"
	SUBCATEGORY = "subcategories/"
	PRODUCT     = "products/"
)

type S3 struct {
	bucketName string
	baseURL    string
	svc        *s3.S3
}

// New opens an S3 client for bucketName. Credentials come from the usual AWS
// environment variables or shared config.
func New(bucketName, region string) (*S3, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	return &S3{
		bucketName: bucketName,
		baseURL:    fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", bucketName, region),
		svc:        s3.New(sess),
	}, nil
}

// Upload stores body under folder+filename with a public-read ACL and returns
// the object's public URL.
func (s *S3) Upload(ctx context.Context, body io.ReadSeeker, folder, filename, contentType string) (string, error) {
	key := folder + filename

	_, err := s.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Body:        body,
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ACL:         aws.String("public-read"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return s.baseURL + key, nil
}

// Remove deletes the object behind a URL returned by Upload. References that
// point elsewhere are ignored.
func (s *S3) Remove(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.baseURL) {
		return nil
	}

	key := strings.TrimPrefix(ref, s.baseURL)

	_, err := s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}

	return nil
}
