package error_types

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "resource not found",
			err:  NewResourceNotFoundError("s3://logs", "app/", nil),
			want: KindNotFound,
		},
		{
			name: "wrapped resource not found",
			err:  fmt.Errorf("listing failed: %w", NewResourceNotFoundError("s3://logs", "", errors.New("NoSuchBucket"))),
			want: KindNotFound,
		},
		{
			name: "unsupported format",
			err:  &UnsupportedFormatError{Format: "xml"},
			want: KindBadRequest,
		},
		{
			name: "invalid filter",
			err:  &InvalidFilterError{Field: "key_prefix", Reason: "must not be empty"},
			want: KindBadRequest,
		},
		{
			name: "fetch failed is internal",
			err:  &FetchFailedError{Key: "a.log", Attempts: 3, Err: errors.New("timeout")},
			want: KindInternal,
		},
		{
			name: "context cancelled is internal",
			err:  context.Canceled,
			want: KindInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsSkippable(t *testing.T) {
	assert.True(t, IsSkippable(&FetchFailedError{Key: "k", Err: errors.New("boom")}))
	assert.True(t, IsSkippable(fmt.Errorf("wrapped: %w", &MalformedInputError{Key: "k", Line: 3, Err: errors.New("bad json")})))
	assert.False(t, IsSkippable(NewResourceNotFoundError("gs://b", "", nil)))
	assert.False(t, IsSkippable(errors.New("other")))
}

func TestMalformedInputError_Error(t *testing.T) {
	lineErr := &MalformedInputError{Key: "a.log", Line: 2, Err: errors.New("unexpected EOF")}
	assert.Equal(t, "malformed input in a.log line 2: unexpected EOF", lineErr.Error())
	assert.False(t, lineErr.ObjectLevel())

	objErr := &MalformedInputError{Key: "a.log", Err: errors.New("invalid UTF-8")}
	assert.Equal(t, "malformed input in a.log: invalid UTF-8", objErr.Error())
	assert.True(t, objErr.ObjectLevel())
}
