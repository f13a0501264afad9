package object_store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/turbot/tailpipe-log-summary/error_types"
	"github.com/turbot/tailpipe-log-summary/types"
)

const (
	S3StoreIdentifier = "aws_s3_bucket"
	s3MaxKeys         = 1000
)

// S3Store is a [Store] implementation that reads objects from an S3 bucket
type S3Store struct {
	bucket string
	client *s3.Client
}

func NewS3Store(ctx context.Context, bucket string, conn *AwsConnection) (*S3Store, error) {
	if conn == nil {
		conn = &AwsConnection{}
	}
	cfg, err := conn.GetClientConfiguration(ctx)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(*cfg, func(o *s3.Options) {
		if endpoint := conn.endpointUrl(); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = conn.forcePathStyle()
	})

	slog.Info("Initialized S3Store", "bucket", bucket, "region", cfg.Region)
	return &S3Store{bucket: bucket, client: client}, nil
}

func (s *S3Store) Identifier() string {
	return S3StoreIdentifier
}

func (s *S3Store) Location() string {
	return "s3://" + s.bucket
}

func (s *S3Store) ListPage(ctx context.Context, prefix, pageToken string) (*Page, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(s3MaxKeys),
	}
	if pageToken != "" {
		input.ContinuationToken = aws.String(pageToken)
	}

	output, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		if isS3BucketNotFound(err) {
			return nil, error_types.NewResourceNotFoundError(s.Location(), prefix, err)
		}
		return nil, fmt.Errorf("failed to get page of S3 objects, %w", err)
	}

	page := &Page{}
	for _, object := range output.Contents {
		key := aws.ToString(object.Key)
		// skip folder placeholders
		if strings.HasSuffix(key, "/") {
			continue
		}
		page.Objects = append(page.Objects, types.ObjectInfo{
			Key:          key,
			Size:         aws.ToInt64(object.Size),
			LastModified: aws.ToTime(object.LastModified),
		})
	}
	if aws.ToBool(output.IsTruncated) {
		page.NextPageToken = aws.ToString(output.NextContinuationToken)
	}
	return page, nil
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) || isS3BucketNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to download object, %w", err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body, %w", err)
	}
	return data, nil
}

func (s *S3Store) Close() error {
	return nil
}

func isS3BucketNotFound(err error) bool {
	var noSuchBucket *s3types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket"
}
