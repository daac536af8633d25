package common

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingWriter fails every write, standing in for a full or revoked log file.
type failingWriter struct {
	writes int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	f.writes++
	return 0, errors.New("disk full")
}

func TestBestEffortWriterNeverFails(t *testing.T) {
	var warnings bytes.Buffer
	w := &bestEffortWriter{w: &failingWriter{}, warnTo: &warnings}

	n, err := w.Write([]byte("first"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = w.Write([]byte("second"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	// The failure notice is emitted once, not per write.
	assert.Equal(t, 1, strings.Count(warnings.String(), "log file write failed"))
}

func TestFileSinkFailureDegradesToStderr(t *testing.T) {
	var stderr, warnings bytes.Buffer
	sink := &failingWriter{}
	out := io.MultiWriter(&stderr, &bestEffortWriter{w: sink, warnTo: &warnings})

	log := slog.New(slog.NewTextHandler(out, nil))
	log.Info("first record")
	log.Info("second record")

	// Every record still reaches stderr even though the file sink fails.
	assert.Contains(t, stderr.String(), "first record")
	assert.Contains(t, stderr.String(), "second record")
	assert.Equal(t, 2, sink.writes)
	assert.Equal(t, 1, strings.Count(warnings.String(), "log file write failed"))
}
