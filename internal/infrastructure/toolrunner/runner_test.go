package toolrunner

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbankscard/hookguard/internal/domain"
)

func TestRunMissingTool(t *testing.T) {
	r := New(time.Second)
	_, err := r.Run(context.Background(), "", "hookguard-no-such-tool")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrToolUnavailable))
	assert.False(t, r.Available("hookguard-no-such-tool"))
}

func TestRunCapturesStdout(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := New(5 * time.Second)
	out, err := r.Run(context.Background(), t.TempDir(), "sh", "-c", "echo audit; exit 1")
	require.Error(t, err)
	assert.Equal(t, "audit\n", string(out))

	out, err = r.Run(context.Background(), "", "sh", "-c", "echo ok")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(out))
}

func TestRunHonoursTimeout(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	r := New(50 * time.Millisecond)
	start := time.Now()
	_, err := r.Run(context.Background(), "", "sleep", "5")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}
