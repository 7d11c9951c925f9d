package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Params configures an S3Store, the way s3.DriverParameters configures
// the teacher's s3-aws storage driver.
type S3Params struct {
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	RegionEndpoint string
	ForcePathStyle bool
	Secure         bool
	RootDirectory  string
}

// S3Store is a Store backed by Amazon S3 (or an S3-compatible endpoint,
// e.g. MinIO), grounded on the teacher's s3-aws storage driver.
type S3Store struct {
	s3     *s3.S3
	bucket string
	root   string
}

var _ Store = &S3Store{}

// NewS3Store constructs an S3Store from params.
func NewS3Store(params S3Params) (*S3Store, error) {
	awsConfig := aws.NewConfig()

	if params.AccessKey != "" && params.SecretKey != "" {
		awsConfig = awsConfig.WithCredentials(credentials.NewStaticCredentials(
			params.AccessKey, params.SecretKey, "",
		))
	}
	if params.RegionEndpoint != "" {
		awsConfig = awsConfig.WithEndpoint(params.RegionEndpoint)
	}
	awsConfig = awsConfig.WithS3ForcePathStyle(params.ForcePathStyle)
	awsConfig = awsConfig.WithRegion(params.Region)
	awsConfig = awsConfig.WithDisableSSL(!params.Secure)

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("creating s3 session: %w", err)
	}

	return &S3Store{
		s3:     s3.New(sess),
		bucket: params.Bucket,
		root:   params.RootDirectory,
	}, nil
}

func (s *S3Store) fullKey(key string) string {
	if s.root == "" {
		return key
	}
	return path.Join(s.root, key)
}

// Put implements Store.
func (s *S3Store) Put(ctx context.Context, key string, content []byte) error {
	_, err := s.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return fmt.Errorf("objectstore: putting %s: %w", key, err)
	}
	return nil
}

// Get implements Store.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == s3.ErrCodeNoSuchKey {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("objectstore: getting %s: %w", key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Delete implements Store. S3 DeleteObject does not error on a missing
// key, matching the Store contract.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		return fmt.Errorf("objectstore: deleting %s: %w", key, err)
	}
	return nil
}

// List implements Store, paging through ListObjectsV2 until exhausted.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	fullPrefix := s.fullKey(prefix)

	err := s.s3.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			k := aws.StringValue(obj.Key)
			if s.root != "" {
				k = strings.TrimPrefix(k, s.root+"/")
			}
			keys = append(keys, k)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: listing %s: %w", prefix, err)
	}
	return keys, nil
}
