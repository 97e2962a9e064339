package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// FFmpegScript writes a two-line playlist to the -segment_list argument and
// exits 0. When STUB_FAIL_SUFFIX is set and appears in that path, it prints an
// error and exits 1 instead.
const FFmpegScript = `#!/bin/sh
list=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-segment_list" ]; then list="$arg"; fi
  prev="$arg"
done
if [ -n "$STUB_FAIL_SUFFIX" ]; then
  case "$list" in
    *"$STUB_FAIL_SUFFIX"*) echo "stub encoder failure" >&2; exit 1 ;;
  esac
fi
printf '#EXTM3U\n#EXT-X-ENDLIST\n' > "$list"
`

// FFprobeScript returns a stub that prints ffprobe JSON for a single video stream.
func FFprobeScript(width, height int, bitRate int64) string {
	return fmt.Sprintf(`#!/bin/sh
cat <<'JSON'
{"streams": [{"index": 0, "codec_type": "video", "codec_name": "h264", "width": %d, "height": %d, "bit_rate": "%d"}], "format": {"bit_rate": "%d"}}
JSON
`, width, height, bitRate, bitRate)
}

// WriteScript writes an executable script and returns its path.
func WriteScript(t testing.TB, path, body string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
	return path
}
