package object_store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/tailpipe-log-summary/error_types"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestFileSystemStore_ListPage(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"app/2024/01/a.log": "a",
		"app/2024/02/b.log": "bb",
		"app/c.log":         "ccc",
		"other/d.log":       "dddd",
	})

	s := NewFileSystemStore(root)
	s.pageSize = 2

	page, err := s.ListPage(context.Background(), "app/", "")
	require.NoError(t, err)
	require.Len(t, page.Objects, 2)
	assert.Equal(t, "app/2024/01/a.log", page.Objects[0].Key)
	assert.Equal(t, "app/2024/02/b.log", page.Objects[1].Key)
	assert.Equal(t, int64(2), page.Objects[1].Size)
	assert.Equal(t, "app/2024/02/b.log", page.NextPageToken)

	page, err = s.ListPage(context.Background(), "app/", page.NextPageToken)
	require.NoError(t, err)
	require.Len(t, page.Objects, 1)
	assert.Equal(t, "app/c.log", page.Objects[0].Key)
	assert.Empty(t, page.NextPageToken)
}

func TestFileSystemStore_ListPage_WalksOnce(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 25; i++ {
		files[fmt.Sprintf("logs/%03d.log", i)] = "x"
	}
	files["zzz/other.log"] = "y"
	writeFiles(t, root, files)

	s := NewFileSystemStore(root)
	s.pageSize = 10

	var keys []string
	token := ""
	for {
		page, err := s.ListPage(context.Background(), "logs/", token)
		require.NoError(t, err)
		for _, obj := range page.Objects {
			keys = append(keys, obj.Key)
			assert.Equal(t, int64(1), obj.Size)
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
		// files created after the first listing are not visible to later pages
		writeFiles(t, root, map[string]string{fmt.Sprintf("logs/late-%d.log", len(keys)): "z"})
	}
	require.Len(t, keys, 25)
	assert.Equal(t, "logs/000.log", keys[0])
	assert.Equal(t, "logs/024.log", keys[24])
}

func TestFileSystemStore_Missing(t *testing.T) {
	s := NewFileSystemStore(filepath.Join(t.TempDir(), "does-not-exist"))
	_, err := s.ListPage(context.Background(), "", "")
	var notFound *error_types.ResourceNotFoundError
	assert.ErrorAs(t, err, &notFound)

	file := filepath.Join(t.TempDir(), "file.log")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = NewFileSystemStore(file).ListPage(context.Background(), "", "")
	assert.ErrorAs(t, err, &notFound)
}

func TestFileSystemStore_Get(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"app/a.log": "hello"})
	s := NewFileSystemStore(root)

	data, err := s.Get(context.Background(), "app/a.log")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = s.Get(context.Background(), "app/missing.log")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = s.Get(context.Background(), "../escape.log")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
