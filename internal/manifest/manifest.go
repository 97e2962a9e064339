package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hlsladder/internal/ladder"
	"hlsladder/internal/services"
)

const header = "#EXTM3U"

// WriteError reports a master manifest that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write master manifest %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Render builds the master manifest for the succeeded rungs. Rungs are listed
// lowest quality first regardless of input order; an empty set yields only the
// header.
func Render(layout ladder.Layout, succeeded []ladder.Rung) []byte {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	seen := make(map[ladder.ID]bool, len(succeeded))
	for _, rung := range ladder.SortAscending(succeeded) {
		if seen[rung.ID] {
			continue
		}
		seen[rung.ID] = true
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=%d\n", rung.Bandwidth)
		b.WriteString(layout.SubManifestRel(rung))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Write replaces the master manifest with the rendering for succeeded.
func Write(layout ladder.Layout, succeeded []ladder.Rung) error {
	path := layout.Master()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &WriteError{Path: path, Err: services.Wrap(services.ErrManifest, "manifest", "create directory", "", err)}
	}
	if err := os.WriteFile(path, Render(layout, succeeded), 0o644); err != nil {
		return &WriteError{Path: path, Err: services.Wrap(services.ErrManifest, "manifest", "write", "", err)}
	}
	return nil
}
