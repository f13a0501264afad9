package object_store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/turbot/tailpipe-log-summary/error_types"
	"github.com/turbot/tailpipe-log-summary/types"
)

const CloudWatchStoreIdentifier = "aws_cloudwatch"

// CloudWatchStore is a [Store] over a CloudWatch log group.
// Each log stream is an object, keyed by stream name; its content is the stream's
// event messages, one per line, oldest first.
type CloudWatchStore struct {
	logGroup string
	client   *cloudwatchlogs.Client
}

func NewCloudWatchStore(ctx context.Context, logGroup string, conn *AwsConnection) (*CloudWatchStore, error) {
	if conn == nil {
		conn = &AwsConnection{}
	}
	cfg, err := conn.GetClientConfiguration(ctx)
	if err != nil {
		return nil, err
	}
	client := cloudwatchlogs.NewFromConfig(*cfg, func(o *cloudwatchlogs.Options) {
		if endpoint := conn.endpointUrl(); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	slog.Info("Initialized CloudWatchStore", "log_group", logGroup, "region", cfg.Region)
	return &CloudWatchStore{logGroup: logGroup, client: client}, nil
}

func (s *CloudWatchStore) Identifier() string {
	return CloudWatchStoreIdentifier
}

func (s *CloudWatchStore) Location() string {
	return "cloudwatch://" + s.logGroup
}

func (s *CloudWatchStore) ListPage(ctx context.Context, prefix, pageToken string) (*Page, error) {
	input := &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: aws.String(s.logGroup),
	}
	if prefix != "" {
		input.LogStreamNamePrefix = aws.String(prefix)
	}
	if pageToken != "" {
		input.NextToken = aws.String(pageToken)
	}

	output, err := s.client.DescribeLogStreams(ctx, input)
	if err != nil {
		var notFound *cwtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, error_types.NewResourceNotFoundError(s.Location(), prefix, err)
		}
		return nil, fmt.Errorf("failed to describe log streams, %w", err)
	}

	page := &Page{NextPageToken: aws.ToString(output.NextToken)}
	for _, stream := range output.LogStreams {
		info := types.ObjectInfo{Key: aws.ToString(stream.LogStreamName)}
		if stream.LastIngestionTime != nil {
			info.LastModified = time.UnixMilli(*stream.LastIngestionTime)
		}
		page.Objects = append(page.Objects, info)
	}
	return page, nil
}

func (s *CloudWatchStore) Get(ctx context.Context, key string) ([]byte, error) {
	var buf bytes.Buffer
	var previousToken *string

	for {
		output, err := s.client.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
			LogGroupName:  aws.String(s.logGroup),
			LogStreamName: aws.String(key),
			StartFromHead: aws.Bool(true),
			NextToken:     previousToken,
		})
		if err != nil {
			var notFound *cwtypes.ResourceNotFoundException
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
			}
			return nil, fmt.Errorf("failed to get log events, %w", err)
		}

		for _, event := range output.Events {
			message := aws.ToString(event.Message)
			buf.WriteString(message)
			if !strings.HasSuffix(message, "\n") {
				buf.WriteByte('\n')
			}
		}

		// the forward token is returned unchanged once the end of the stream is reached
		if output.NextForwardToken == nil || (previousToken != nil && *previousToken == *output.NextForwardToken) {
			break
		}
		previousToken = output.NextForwardToken
	}

	return buf.Bytes(), nil
}

func (s *CloudWatchStore) Close() error {
	return nil
}
