package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3 reads objects named by s3://bucket/key URIs.  Credentials and region
// come from the usual AWS environment variables and shared config, and
// AWS_S3_ENDPOINT points the client at an S3-compatible server.
type S3 struct {
	once   sync.Once
	client *s3.S3
	err    error
}

var _ Engine = (*S3)(nil)

func NewS3() *S3 {
	return &S3{}
}

func (s *S3) init() (*s3.S3, error) {
	s.once.Do(func() {
		sess, err := session.NewSessionWithOptions(session.Options{
			SharedConfigState: session.SharedConfigEnable,
		})
		if err != nil {
			s.err = err
			return
		}
		cfg := aws.NewConfig()
		if endpoint := os.Getenv("AWS_S3_ENDPOINT"); endpoint != "" {
			cfg = cfg.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
		}
		s.client = s3.New(sess, cfg)
	})
	return s.client, s.err
}

func bucketKey(u *URI) (string, string) {
	return u.Host, strings.TrimPrefix(u.Path, "/")
}

func (s *S3) Get(ctx context.Context, u *URI) (Reader, error) {
	client, err := s.init()
	if err != nil {
		return nil, err
	}
	bucket, key := bucketKey(u)
	out, err := client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s3Err(err)
	}
	return out.Body, nil
}

func (s *S3) Size(ctx context.Context, u *URI) (int64, error) {
	client, err := s.init()
	if err != nil {
		return 0, err
	}
	bucket, key := bucketKey(u)
	out, err := client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, s3Err(err)
	}
	return aws.Int64Value(out.ContentLength), nil
}

func (s *S3) Exists(ctx context.Context, u *URI) (bool, error) {
	_, err := s.Size(ctx, u)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// List returns the objects whose keys begin with the path of u followed
// by a slash.
func (s *S3) List(ctx context.Context, u *URI) ([]Info, error) {
	client, err := s.init()
	if err != nil {
		return nil, err
	}
	bucket, prefix := bucketKey(u)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	var infos []Info
	err = client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			infos = append(infos, Info{
				Name: strings.TrimPrefix(aws.StringValue(obj.Key), prefix),
				Size: aws.Int64Value(obj.Size),
			})
		}
		return true
	})
	return infos, s3Err(err)
}

func s3Err(err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return fs.ErrNotExist
		}
	}
	return err
}
