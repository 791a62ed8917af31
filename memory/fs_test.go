package memory_test

import (
	"context"
	iofs "io/fs"
	"testing"

	"github.com/fwojciec/critical/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("reads files by absolute path", func(t *testing.T) {
		t.Parallel()

		fsys := memory.NewFS(map[string]string{"/site/css/main.css": "h1{a:b}"})

		data, err := fsys.ReadFile(ctx, "/site/css/../css/main.css")
		require.NoError(t, err)
		assert.Equal(t, "h1{a:b}", string(data))

		_, err = fsys.ReadFile(ctx, "/site/missing.css")
		assert.ErrorIs(t, err, iofs.ErrNotExist)
	})

	t.Run("writes copies of data", func(t *testing.T) {
		t.Parallel()

		fsys := memory.NewFS(nil)
		data := []byte("h1{a:b}")
		require.NoError(t, fsys.WriteFile(ctx, "/a.css", data))
		data[0] = 'x'

		content, ok := fsys.Content("/a.css")
		require.True(t, ok)
		assert.Equal(t, "h1{a:b}", content)
	})

	t.Run("removes files", func(t *testing.T) {
		t.Parallel()

		fsys := memory.NewFS(map[string]string{"/a.css": "x"})

		require.NoError(t, fsys.Remove(ctx, "/a.css"))
		assert.ErrorIs(t, fsys.Remove(ctx, "/a.css"), iofs.ErrNotExist)
	})

	t.Run("lists directories", func(t *testing.T) {
		t.Parallel()

		fsys := memory.NewFS(map[string]string{
			"/site/b.css":     "x",
			"/site/a/c.css":   "x",
			"/site/index.htm": "x",
		})

		entries, err := fsys.ReadDir(ctx, "/site")
		require.NoError(t, err)
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		assert.Equal(t, []string{"a", "b.css", "index.htm"}, names)
		assert.True(t, entries[0].IsDir())

		info, err := fsys.Stat(ctx, "/site/b.css")
		require.NoError(t, err)
		assert.Equal(t, int64(1), info.Size())
	})
}
