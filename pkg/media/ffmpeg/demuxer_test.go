// ABOUTME: Tests for the FFmpeg backend
// ABOUTME: Tests registration and input open failures
package ffmpeg

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/rawdemux/pkg/media/decode"
)

func TestBackendRegistered(t *testing.T) {
	if _, err := decode.Lookup(BackendName); err != nil {
		t.Fatalf("expected %s backend to be registered: %v", BackendName, err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.mkv")

	d, err := Open(path)
	if err == nil {
		d.Close()
		t.Fatal("expected error for missing input, got nil")
	}

	if !strings.HasPrefix(err.Error(), "could not open source file "+path) {
		t.Errorf("unexpected error: %v", err)
	}
}
