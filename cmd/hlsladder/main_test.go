package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hlsladder/internal/config"
	"hlsladder/internal/pipeline"
	"hlsladder/internal/services"
	"hlsladder/internal/testsupport"
)

type cliEnv struct {
	base       string
	configPath string
	outputDir  string
	cfg        config.Config
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("HLSLADDER_FFMPEG", "")
	t.Setenv("HLSLADDER_FFPROBE", "")
	t.Setenv("STUB_FAIL_SUFFIX", "")

	env := &cliEnv{
		base:       base,
		configPath: filepath.Join(base, "config.toml"),
		outputDir:  filepath.Join(base, "out"),
		cfg:        *testsupport.NewConfig(t, testsupport.WithStubbedBinaries()),
	}
	env.writeConfig(t)
	return env
}

func (e *cliEnv) writeConfig(t *testing.T) {
	t.Helper()
	data, err := toml.Marshal(e.cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(e.configPath, data, 0o644))
}

func runCLI(t *testing.T, env *cliEnv, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"--config", env.configPath}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

var runIDPattern = regexp.MustCompile(`Run:\s+([0-9a-f-]{36})`)

func TestConvertFullLadder(t *testing.T) {
	env := setupCLIEnv(t)

	stdout, stderr, code := runCLI(t, env, "convert", "-i", filepath.Join(env.base, "in.mp4"), "-o", env.outputDir, "-f", "movie")
	require.Equal(t, exitOK, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, "3/3 renditions succeeded")
	assert.Contains(t, stdout, "720p, 480p, 220p")

	master, err := os.ReadFile(filepath.Join(env.outputDir, "movie.m3u8"))
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=500000",
		"movie-500k/movie-500k.m3u8",
		"#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=1000000",
		"movie-1M/movie-1M.m3u8",
		"#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=3000000",
		"movie-3M/movie-3M.m3u8",
		"",
	}, "\n"), string(master))
	assert.FileExists(t, filepath.Join(env.outputDir, "movie-1M", "movie-1M.m3u8"))

	match := runIDPattern.FindStringSubmatch(stdout)
	require.Len(t, match, 2, stdout)
	runID := match[1]

	listOut, _, code := runCLI(t, env, "history")
	require.Equal(t, exitOK, code)
	assert.Contains(t, listOut, runID[:8])
	assert.Contains(t, listOut, "succeeded")

	showOut, _, code := runCLI(t, env, "history", "show", runID[:8])
	require.Equal(t, exitOK, code)
	assert.Contains(t, showOut, runID)
	assert.Contains(t, showOut, "1280x720")
	assert.Contains(t, showOut, "480p")
}

func TestConvertPartialFailureExitsTwo(t *testing.T) {
	env := setupCLIEnv(t)
	t.Setenv("STUB_FAIL_SUFFIX", "-3M/")

	stdout, stderr, code := runCLI(t, env, "convert", "-i", "in.mp4", "-o", env.outputDir, "-f", "movie")
	assert.Equal(t, exitPartialFailure, code, "stderr: %s", stderr)
	assert.Contains(t, stdout, "2/3 renditions succeeded")
	assert.Contains(t, stderr, "720p")

	master, err := os.ReadFile(filepath.Join(env.outputDir, "movie.m3u8"))
	require.NoError(t, err)
	assert.NotContains(t, string(master), "movie-3M")
	assert.Equal(t, 2, strings.Count(string(master), "#EXT-X-STREAM-INF"))
}

func TestConvertRequiresFlags(t *testing.T) {
	env := setupCLIEnv(t)
	_, stderr, code := runCLI(t, env, "convert", "-i", "in.mp4")
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stderr, "required flag")
}

func TestConvertMissingBinaryIsFatal(t *testing.T) {
	env := setupCLIEnv(t)
	env.cfg.Tools.FFmpeg = filepath.Join(env.base, "nope", "ffmpeg")
	env.writeConfig(t)

	_, stderr, code := runCLI(t, env, "convert", "-i", "in.mp4", "-o", env.outputDir, "-f", "movie")
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stderr, "FFmpeg")
	assert.NoFileExists(t, filepath.Join(env.outputDir, "movie.m3u8"))
}

func TestConvertProbeFailureIsFatal(t *testing.T) {
	env := setupCLIEnv(t)
	testsupport.WriteScript(t, env.cfg.Tools.FFprobe, "#!/bin/sh\necho 'in.mp4: Invalid data found when processing input' >&2\nexit 1\n")

	_, stderr, code := runCLI(t, env, "convert", "-i", "in.mp4", "-o", env.outputDir, "-f", "movie")
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stderr, "Invalid data found")
	assert.NoFileExists(t, filepath.Join(env.outputDir, "movie.m3u8"))
}

func TestDoctor(t *testing.T) {
	env := setupCLIEnv(t)
	stdout, _, code := runCLI(t, env, "doctor")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "FFprobe")
	assert.Contains(t, stdout, "FFmpeg")
	assert.Contains(t, stdout, "History directory")

	env.cfg.Tools.FFprobe = "definitely-not-a-real-ffprobe"
	env.writeConfig(t)
	stdout, stderr, code := runCLI(t, env, "doctor")
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stdout, "MISSING")
	assert.Contains(t, stderr, "required tool")
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLIEnv(t)
	env.cfg = *testsupport.NewConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithHistoryDisabled())
	env.writeConfig(t)

	_, stderr, code := runCLI(t, env, "history")
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stderr, "disabled")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, code := runCLI(t, env, "config", "validate")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, code = runCLI(t, env, "config", "init", "--path", target)
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Wrote sample configuration")
	assert.FileExists(t, target)

	_, stderr, code := runCLI(t, env, "config", "init", "--path", target)
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stderr, "already exists")
}

func TestInvalidLogFormatFlag(t *testing.T) {
	env := setupCLIEnv(t)
	_, stderr, code := runCLI(t, env, "--log-format", "xml", "doctor")
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stderr, "xml")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitPartialFailure, exitCode(fmt.Errorf("%w: 720p", pipeline.ErrRenditionsFailed)))
	assert.Equal(t, exitFatal, exitCode(services.Wrap(services.ErrBusy, "request", "lock", "", nil)))
	assert.Equal(t, exitFatal, exitCode(errors.New("boom")))
	assert.Equal(t, exitFatal, exitCode(fmt.Errorf("conversion interrupted: %w", context.Canceled)))
}
