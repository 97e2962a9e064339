package rendition_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hlsladder/internal/ladder"
	"hlsladder/internal/rendition"
	"hlsladder/internal/testsupport"
)

type stubExecutor struct {
	stderr string
	err    error
	write  func(args []string) error
	binary string
	args   []string
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string, stderr io.Writer) error {
	s.binary = binary
	s.args = args
	if s.stderr != "" {
		_, _ = io.WriteString(stderr, s.stderr)
	}
	if s.write != nil {
		if err := s.write(args); err != nil {
			return err
		}
	}
	return s.err
}

func TestRunSuccess(t *testing.T) {
	root := t.TempDir()
	layout := mustLayout(t, root, "clip")
	rung := mustRung(t, ladder.Rung480p)

	exec := &stubExecutor{write: func(args []string) error {
		return os.WriteFile(flagValue(args, "-segment_list"), []byte("#EXTM3U\n"), 0o644)
	}}
	tr := rendition.New("/usr/bin/ffmpeg", rendition.WithExecutor(exec))

	result := tr.Run(context.Background(), rung, "in.mp4", layout)
	require.True(t, result.Succeeded(), result.Detail)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, rung, result.Rung)
	assert.Equal(t, "/usr/bin/ffmpeg", exec.binary)
	assert.Equal(t, append([]string{"/usr/bin/ffmpeg"}, exec.args...), result.Command)
	assert.Equal(t, uint64(len("#EXTM3U\n")), result.OutputBytes)
	assert.DirExists(t, layout.RungDir(rung))
}

func TestRunFailureCarriesStderrTail(t *testing.T) {
	layout := mustLayout(t, t.TempDir(), "clip")
	exec := &stubExecutor{
		stderr: strings.Repeat("frame=1\n", 50) + "Unknown encoder 'libx264'\n",
		err:    errors.New("exit status 1"),
	}
	result := rendition.New("ffmpeg", rendition.WithExecutor(exec)).Run(context.Background(), mustRung(t, ladder.Rung220p), "in.mp4", layout)

	assert.False(t, result.Succeeded())
	assert.Equal(t, rendition.Failure, result.Outcome)
	assert.Equal(t, -1, result.ExitCode, "non ExitError has no exit status")
	assert.Contains(t, result.Detail, "Unknown encoder")
	assert.LessOrEqual(t, strings.Count(result.Detail, "frame=1"), 8)
}

func TestRunReportsExitCodeFromProcess(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\necho 'conversion failed' >&2\nexit 3\n"), 0o755))

	result := rendition.New(stub).Run(context.Background(), mustRung(t, ladder.Rung720p), "in.mp4", mustLayout(t, dir, "clip"))
	assert.Equal(t, rendition.Failure, result.Outcome)
	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, result.Detail, "conversion failed")
}

func TestRunDirectoryFailure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))

	exec := &stubExecutor{}
	result := rendition.New("ffmpeg", rendition.WithExecutor(exec)).Run(context.Background(), mustRung(t, ladder.Rung220p), "in.mp4", mustLayout(t, root, "clip"))
	assert.Equal(t, rendition.Failure, result.Outcome)
	assert.Contains(t, result.Detail, "create rung directory")
	assert.Empty(t, exec.binary, "transcoder must not run without a directory")
}

func TestRunTimeout(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\nexec sleep 5\n"), 0o755))

	tr := rendition.New(stub, rendition.WithTimeout(100*time.Millisecond))
	start := time.Now()
	result := tr.Run(context.Background(), mustRung(t, ladder.Rung220p), "in.mp4", mustLayout(t, dir, "clip"))
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Equal(t, rendition.Failure, result.Outcome)
	assert.Contains(t, result.Detail, "timed out")
}

func TestRunStubBinaryWritesPlaylist(t *testing.T) {
	t.Setenv("STUB_FAIL_SUFFIX", "")
	dir := t.TempDir()
	stub := testsupport.WriteScript(t, filepath.Join(dir, "bin", "ffmpeg"), testsupport.FFmpegScript)
	layout := mustLayout(t, filepath.Join(dir, "out"), "clip")
	rung := mustRung(t, ladder.Rung220p)

	result := rendition.New(stub).Run(context.Background(), rung, "in.mp4", layout)
	require.True(t, result.Succeeded(), result.Detail)
	assert.FileExists(t, layout.SubManifest(rung))
	assert.Positive(t, result.OutputBytes)
}
