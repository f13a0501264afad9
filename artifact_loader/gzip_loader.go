package artifact_loader

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/turbot/tailpipe-log-summary/error_types"
	"github.com/turbot/tailpipe-log-summary/types"
)

const GzipLoaderIdentifier = "gzip_loader"

// maximum decompressed size of a single object
var maxDecompressedSize int64 = 1 << 30

var gzipMagic = []byte{0x1f, 0x8b}

func init() {
	// register loader
	Factory.RegisterArtifactLoaders(NewGzipLoader)
}

// GzipLoader is a Loader which decompresses a gzip object and returns all the content
type GzipLoader struct {
}

func NewGzipLoader() Loader {
	return &GzipLoader{}
}

func (g GzipLoader) Identifier() string {
	return GzipLoaderIdentifier
}

// CanLoad returns true for objects with a gzip extension or which start with the gzip magic number
func (g GzipLoader) CanLoad(obj types.RawObject) bool {
	key := strings.ToLower(obj.Key)
	return strings.HasSuffix(key, ".gz") || strings.HasSuffix(key, ".gzip") || bytes.HasPrefix(obj.Data, gzipMagic)
}

// Load implements Loader
// A corrupt or oversized gzip stream is a MalformedInputError scoped to this object
func (g GzipLoader) Load(ctx context.Context, obj types.RawObject) (types.RawObject, error) {
	gzReader, err := gzip.NewReader(bytes.NewReader(obj.Data))
	if err != nil {
		return obj, &error_types.MalformedInputError{Key: obj.Key, Err: err}
	}
	defer gzReader.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(gzReader, maxDecompressedSize+1))
	if err != nil {
		return obj, &error_types.MalformedInputError{Key: obj.Key, Err: err}
	}
	if n > maxDecompressedSize {
		return obj, &error_types.MalformedInputError{Key: obj.Key, Err: fmt.Errorf("decompressed object exceeds %d bytes", maxDecompressedSize)}
	}
	if ctx.Err() != nil {
		return obj, ctx.Err()
	}
	return types.RawObject{Key: obj.Key, Data: buf.Bytes()}, nil
}
