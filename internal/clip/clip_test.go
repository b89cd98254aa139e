package clip

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCommandRead(t *testing.T) {
	a, err := NewCommand("printf hello", "cat", 0)
	require.NoError(t, err)

	got, err := a.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestCommandWrite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "clipboard")
	a, err := NewCommand("cat "+out, "tee "+out, 0)
	require.NoError(t, err)

	require.NoError(t, a.Write(context.Background(), "copied text"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "copied text", string(data))

	got, err := a.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, "copied text", got)
}

func TestCommandReadFailure(t *testing.T) {
	a, err := NewCommand("false", "cat", 0)
	require.NoError(t, err)

	_, err = a.Read(context.Background())
	require.Error(t, err)
}

func TestCommandTimeout(t *testing.T) {
	a, err := NewCommand("sleep 10", "sleep 10", 100*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	_, err = a.Read(context.Background())
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)

	start = time.Now()
	err = a.Write(context.Background(), "x")
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestCommandQuotedArguments(t *testing.T) {
	a, err := NewCommand(`printf "two words"`, "cat", 0)
	require.NoError(t, err)

	got, err := a.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, "two words", got)
}

func TestNewCommandRejectsEmpty(t *testing.T) {
	_, err := NewCommand("", "cat", 0)
	require.Error(t, err)

	_, err = NewCommand("cat", "   ", 0)
	require.Error(t, err)
}

func TestNewCommandRejectsUnbalancedQuote(t *testing.T) {
	_, err := NewCommand("xclip '-o", "cat", 0)
	require.Error(t, err)
}
