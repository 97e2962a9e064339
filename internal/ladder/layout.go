package ladder

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"hlsladder/internal/services"
)

// Layout maps rungs to their on-disk locations under an output root.
type Layout struct {
	Root string
	Base string
}

// NewLayout validates the base filename and returns the layout for root.
func NewLayout(root, base string) (Layout, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return Layout{}, services.Wrap(services.ErrValidation, "layout", "output root", "output directory is required", nil)
	}
	base = norm.NFC.String(strings.TrimSpace(base))
	switch {
	case base == "":
		return Layout{}, services.Wrap(services.ErrValidation, "layout", "base name", "base filename is required", nil)
	case base == "." || base == "..":
		return Layout{}, services.Wrap(services.ErrValidation, "layout", "base name", fmt.Sprintf("invalid base filename %q", base), nil)
	case strings.ContainsAny(base, `/\`) || strings.ContainsRune(base, 0):
		return Layout{}, services.Wrap(services.ErrValidation, "layout", "base name", fmt.Sprintf("base filename %q must not contain path separators", base), nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, services.Wrap(services.ErrValidation, "layout", "output root", fmt.Sprintf("resolve output directory %q", root), err)
	}
	return Layout{Root: abs, Base: base}, nil
}

func (l Layout) stem(r Rung) string {
	return l.Base + "-" + r.Suffix
}

// RungDir is the directory owned by the rung's transcode job.
func (l Layout) RungDir(r Rung) string {
	return filepath.Join(l.Root, l.stem(r))
}

// SubManifest is the rung's segment playlist.
func (l Layout) SubManifest(r Rung) string {
	return filepath.Join(l.RungDir(r), l.stem(r)+".m3u8")
}

// SubManifestRel is the sub-manifest path relative to the master manifest.
// It always uses forward slashes.
func (l Layout) SubManifestRel(r Rung) string {
	return l.stem(r) + "/" + l.stem(r) + ".m3u8"
}

// SegmentPattern is the ffmpeg segment filename template for the rung.
func (l Layout) SegmentPattern(r Rung) string {
	return filepath.Join(l.RungDir(r), fmt.Sprintf("%s-%%04d.%s.ts", l.Base, r.Suffix))
}

// Master is the master manifest path.
func (l Layout) Master() string {
	return filepath.Join(l.Root, l.Base+".m3u8")
}

// LockPath guards concurrent runs writing the same base name.
func (l Layout) LockPath() string {
	return filepath.Join(l.Root, "."+l.Base+".lock")
}
