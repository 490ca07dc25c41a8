package resource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nappernick/mcp-wrapper/pkg/cache/memory"
	"github.com/nappernick/mcp-wrapper/pkg/resource"
	"github.com/nappernick/mcp-wrapper/pkg/tool"

	"github.com/stretchr/testify/require"
)

func TestProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("exposes the read_file tool", func(t *testing.T) {
		tools, err := New().Tools(ctx)
		require.NoError(t, err)
		require.Len(t, tools, 1)
		require.Equal(t, "read_file", tools[0].Name)
		require.Equal(t, []string{"uri"}, tools[0].Parameters["required"])
	})

	t.Run("reads through execute", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o600))

		value, err := New().Execute(ctx, "read_file", map[string]any{"uri": "file://" + path})
		require.NoError(t, err)

		content := value.(*resource.Content)
		require.Equal(t, "hello world", content.Text)
	})

	t.Run("rejects unknown tools", func(t *testing.T) {
		_, err := New().Execute(ctx, "write_file", map[string]any{})
		require.ErrorIs(t, err, tool.ErrInvalidTool)
	})

	t.Run("memoizes reads by uri", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("first"), 0o600))

		p := New(WithCache(memory.New(time.Minute)))

		content, err := p.Read(ctx, "file://"+path)
		require.NoError(t, err)
		require.Equal(t, "first", content.Text)

		require.NoError(t, os.WriteFile(path, []byte("second"), 0o600))

		content, err = p.Read(ctx, "file://"+path)
		require.NoError(t, err)
		require.Equal(t, "first", content.Text)
	})

	t.Run("read errors are not cached", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")

		p := New(WithCache(memory.New(time.Minute)))

		_, err := p.Read(ctx, "file://"+path)
		require.Error(t, err)

		require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

		content, err := p.Read(ctx, "file://"+path)
		require.NoError(t, err)
		require.Equal(t, "hello", content.Text)
	})
}
