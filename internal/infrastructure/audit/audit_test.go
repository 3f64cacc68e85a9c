package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogf_LineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	log, err := Open(path)
	require.NoError(t, err)
	log.now = func() time.Time {
		return time.Date(2026, 9, 1, 5, 0, 3, 0, time.UTC)
	}

	log.Logf("timer created: %q on channel %s", "Tatort", "37")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "2026-09-01T05:00:03Z - timer created: \"Tatort\" on channel 37\n", string(data))
}

func TestOpen_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	first, err := Open(path)
	require.NoError(t, err)
	first.Logf("first line")
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	second.Logf("second line")
	require.NoError(t, second.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first line")
	assert.Contains(t, lines[1], "second line")
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "no", "such", "dir", "audit.log"))
	assert.Error(t, err)
}
