package rendition

import (
	"fmt"
	"strconv"
	"strings"

	"hlsladder/internal/ladder"
)

const (
	videoCodec         = "libx264"
	constantRateFactor = 20
	keyframeInterval   = 30
)

// Params is the fully resolved encoder configuration for one rung.
type Params struct {
	Input          string
	AudioCodec     string
	AudioKbps      int
	VideoKbps      int
	Filters        []string
	SubManifest    string
	SegmentPattern string
}

// NewParams resolves the rung catalog entry against the output layout.
func NewParams(rung ladder.Rung, input string, layout ladder.Layout) Params {
	p := Params{
		Input:          input,
		AudioCodec:     "copy",
		VideoKbps:      rung.VideoKbps,
		SubManifest:    layout.SubManifest(rung),
		SegmentPattern: layout.SegmentPattern(rung),
	}
	if !rung.AudioCopy() {
		p.AudioCodec = "aac"
		p.AudioKbps = rung.AudioKbps
	}
	if rung.Deinterlace {
		p.Filters = append(p.Filters, "yadif=0")
	}
	if rung.Scale != "" {
		p.Filters = append(p.Filters, "scale="+rung.Scale)
	}
	return p
}

// Args renders the ffmpeg argument list. Paths are passed as single arguments
// and never interpreted by a shell.
func (p Params) Args() []string {
	rate := kbps(p.VideoKbps)
	args := []string{"-hide_banner", "-nostdin", "-y", "-i", p.Input}

	args = append(args, "-acodec", p.AudioCodec)
	if p.AudioCodec != "copy" {
		args = append(args, "-strict", "-2")
		if p.AudioKbps > 0 {
			args = append(args, "-ab", kbps(p.AudioKbps))
		}
	}

	args = append(args,
		"-map", "0",
		"-f", "segment",
		"-bsf:v", "h264_mp4toannexb",
		"-flags", "-global_header",
		"-segment_format", "mpegts",
		"-segment_list_type", "m3u8",
		"-vcodec", videoCodec,
	)
	if len(p.Filters) > 0 {
		args = append(args, "-vf", strings.Join(p.Filters, ","))
	}
	args = append(args,
		"-crf", strconv.Itoa(constantRateFactor),
		"-b:v", rate,
		"-maxrate", rate,
		"-bufsize", rate,
		"-g", strconv.Itoa(keyframeInterval),
		"-segment_list", p.SubManifest,
		p.SegmentPattern,
	)
	return args
}

func kbps(v int) string {
	return fmt.Sprintf("%dk", v)
}
