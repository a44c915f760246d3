package clipboard_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/fwojciec/autoeval/clipboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_Copy(t *testing.T) {
	t.Parallel()

	t.Run("pipes content to the command", func(t *testing.T) {
		t.Parallel()
		if _, err := exec.LookPath("sh"); err != nil {
			t.Skip("sh not available")
		}
		out := filepath.Join(t.TempDir(), "clip.txt")

		cb := clipboard.NewCommand("sh", "-c", `cat > "$0"`, out)
		require.NoError(t, cb.Copy("report body\n"))

		got, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "report body\n", string(got))
	})

	t.Run("reports command failure", func(t *testing.T) {
		t.Parallel()

		cb := clipboard.NewCommand("autoeval-no-such-clipboard")
		err := cb.Copy("x")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "autoeval-no-such-clipboard")
	})
}

func TestPBCopy_Copy(t *testing.T) {
	t.Parallel()

	// Skip if pbcopy is not available (non-macOS systems)
	if _, err := exec.LookPath("pbcopy"); err != nil {
		t.Skip("pbcopy not available, skipping clipboard test")
	}
	if _, err := exec.LookPath("pbpaste"); err != nil {
		t.Skip("pbpaste not available, cannot verify clipboard content")
	}

	cb := clipboard.NewPBCopy()
	require.NoError(t, cb.Copy("test clipboard content from autoeval"))

	out, err := exec.Command("pbpaste").Output()
	require.NoError(t, err)
	assert.Equal(t, "test clipboard content from autoeval", string(out))
}

func TestSystem(t *testing.T) {
	t.Parallel()

	cb, err := clipboard.System()
	if err != nil {
		assert.ErrorIs(t, err, clipboard.ErrUnavailable)
		return
	}
	assert.NotEmpty(t, cb.Name())
}
