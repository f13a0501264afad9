package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/turbot/tailpipe-log-summary/error_types"
	"github.com/turbot/tailpipe-log-summary/types"
)

const maxLineSize = 4 * 1024 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// errLineTooLong is passed to the line callback in place of a line longer than maxLineSize
var errLineTooLong = fmt.Errorf("line exceeds %d bytes", maxLineSize)

// decodeText validates the object is UTF-8 text and strips any byte order mark
func decodeText(obj types.RawObject) ([]byte, error) {
	data := bytes.TrimPrefix(obj.Data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &error_types.MalformedInputError{Key: obj.Key, Err: errors.New("object is not valid UTF-8 text")}
	}
	return data, nil
}

// forEachLine calls fn with each line of the object and its 1-based line number.
// A line longer than maxLineSize is passed truncated, with errLineTooLong, and the following lines are still visited.
// It stops early, returning nil, when fn returns false.
func forEachLine(ctx context.Context, obj types.RawObject, fn func(lineNumber int, line string, err error) bool) error {
	data, err := decodeText(obj)
	if err != nil {
		return err
	}

	lineNumber := 0
	for len(data) > 0 {
		// check context cancellation
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		lineNumber++
		line = bytes.TrimSuffix(line, []byte("\r"))

		var lineErr error
		if len(line) > maxLineSize {
			line = truncateUTF8(line, maxLineSize)
			lineErr = errLineTooLong
		}
		if !fn(lineNumber, string(line), lineErr) {
			return nil
		}
	}
	return nil
}

// truncateUTF8 cuts b to at most n bytes without splitting a rune
func truncateUTF8(b []byte, n int) []byte {
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return b[:n]
}
