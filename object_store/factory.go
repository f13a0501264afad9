package object_store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/turbot/tailpipe-log-summary/error_types"
)

// Connections carries the optional per-provider settings used when opening a remote store
type Connections struct {
	Aws *AwsConnection
	Gcp *GcpConnection
}

const (
	schemeS3         = "s3"
	schemeGcs        = "gs"
	schemeCloudWatch = "cloudwatch"
	schemeFile       = "file"
)

// Location is a parsed store location
type Location struct {
	Scheme string
	// Name is the bucket, log group or directory
	Name string
}

// ParseLocation interprets a store location.
//
//	s3://bucket, gs://bucket, cloudwatch://log-group, file:///path
//	/path, ./path, ~/path   a local directory
//	bucket                  an S3 bucket
func ParseLocation(location string) (Location, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return Location{}, &error_types.InvalidFilterError{Field: "store_location", Reason: "must not be empty"}
	}

	scheme, rest, hasScheme := strings.Cut(location, "://")
	if !hasScheme {
		if strings.HasPrefix(location, "/") || strings.HasPrefix(location, ".") || strings.HasPrefix(location, "~") {
			return fileLocation(location)
		}
		scheme, rest = schemeS3, location
	}

	switch strings.ToLower(scheme) {
	case schemeS3, schemeGcs, "gcs":
		bucket := strings.Trim(rest, "/")
		if bucket == "" {
			return Location{}, &error_types.InvalidFilterError{Field: "store_location", Reason: fmt.Sprintf("%q has no bucket name", location)}
		}
		if strings.Contains(bucket, "/") {
			return Location{}, &error_types.InvalidFilterError{Field: "store_location", Reason: fmt.Sprintf("%q must name a bucket only, use the key prefix to select objects", location)}
		}
		if strings.EqualFold(scheme, schemeS3) {
			return Location{Scheme: schemeS3, Name: bucket}, nil
		}
		return Location{Scheme: schemeGcs, Name: bucket}, nil
	case schemeCloudWatch:
		group := strings.TrimSuffix(rest, "/")
		if strings.Trim(group, "/") == "" {
			return Location{}, &error_types.InvalidFilterError{Field: "store_location", Reason: fmt.Sprintf("%q has no log group name", location)}
		}
		// "cloudwatch:///aws/lambda/fn" names the group "/aws/lambda/fn"
		return Location{Scheme: schemeCloudWatch, Name: group}, nil
	case schemeFile:
		if rest == "" {
			return Location{}, &error_types.InvalidFilterError{Field: "store_location", Reason: fmt.Sprintf("%q has no path", location)}
		}
		return fileLocation(rest)
	default:
		return Location{}, &error_types.InvalidFilterError{Field: "store_location", Reason: fmt.Sprintf("unsupported scheme %q", scheme)}
	}
}

func fileLocation(path string) (Location, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Location{}, &error_types.InvalidFilterError{Field: "store_location", Reason: err.Error()}
	}
	return Location{Scheme: schemeFile, Name: filepath.Clean(expanded)}, nil
}

// Open returns the [Store] for a store location
func Open(ctx context.Context, location string, conns Connections) (Store, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case schemeS3:
		return NewS3Store(ctx, loc.Name, conns.Aws)
	case schemeGcs:
		return NewGcsStore(ctx, loc.Name, conns.Gcp)
	case schemeCloudWatch:
		return NewCloudWatchStore(ctx, loc.Name, conns.Aws)
	default:
		return NewFileSystemStore(loc.Name), nil
	}
}
