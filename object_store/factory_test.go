package object_store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/tailpipe-log-summary/error_types"
)

func TestParseLocation(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)

	tests := []struct {
		location string
		want     Location
		wantErr  bool
	}{
		{location: "s3://my-bucket", want: Location{Scheme: "s3", Name: "my-bucket"}},
		{location: "S3://my-bucket/", want: Location{Scheme: "s3", Name: "my-bucket"}},
		{location: "my-bucket", want: Location{Scheme: "s3", Name: "my-bucket"}},
		{location: "gs://logs", want: Location{Scheme: "gs", Name: "logs"}},
		{location: "gcs://logs", want: Location{Scheme: "gs", Name: "logs"}},
		{location: "cloudwatch:///aws/lambda/fn", want: Location{Scheme: "cloudwatch", Name: "/aws/lambda/fn"}},
		{location: "cloudwatch://app-logs", want: Location{Scheme: "cloudwatch", Name: "app-logs"}},
		{location: "file:///var/log/app", want: Location{Scheme: "file", Name: "/var/log/app"}},
		{location: "/var/log/app/", want: Location{Scheme: "file", Name: "/var/log/app"}},
		{location: "./logs", want: Location{Scheme: "file", Name: "logs"}},
		{location: "~/logs", want: Location{Scheme: "file", Name: filepath.Join(home, "logs")}},
		{location: "", wantErr: true},
		{location: "s3://", wantErr: true},
		{location: "s3://bucket/with/path", wantErr: true},
		{location: "cloudwatch://", wantErr: true},
		{location: "ftp://host", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			got, err := ParseLocation(tt.location)
			if tt.wantErr {
				var invalid *error_types.InvalidFilterError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, "store_location", invalid.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpen_FileSystem(t *testing.T) {
	root := t.TempDir()
	store, err := Open(context.Background(), root, Connections{})
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, FileSystemStoreIdentifier, store.Identifier())
	assert.Equal(t, filepath.Clean(root), store.Location())
}
