package ladder

import (
	"fmt"
	"slices"
)

// ID names a rung of the quality ladder.
type ID string

const (
	Rung220p ID = "220p"
	Rung480p ID = "480p"
	Rung720p ID = "720p"
)

// Rung is a fixed catalog entry describing one output variant.
type Rung struct {
	ID ID
	// Rank orders rungs by ascending quality; 220p is 0.
	Rank int
	// VideoKbps is used for the target, max and buffer size rates.
	VideoKbps int
	// AudioKbps of 0 means the source audio is copied.
	AudioKbps int
	// Scale is "W:H"; empty keeps the source resolution.
	Scale       string
	Deinterlace bool
	// Suffix names the rung directory, playlist and segment extension.
	Suffix    string
	Bandwidth int
}

// AudioCopy reports whether the rung passes the source audio through.
func (r Rung) AudioCopy() bool { return r.AudioKbps <= 0 }

func (r Rung) String() string { return string(r.ID) }

var catalog = []Rung{
	{ID: Rung220p, Rank: 0, VideoKbps: 450, AudioKbps: 64, Scale: "640:360", Deinterlace: true, Suffix: "500k", Bandwidth: 500_000},
	{ID: Rung480p, Rank: 1, VideoKbps: 900, AudioKbps: 128, Scale: "1280:720", Deinterlace: true, Suffix: "1M", Bandwidth: 1_000_000},
	{ID: Rung720p, Rank: 2, VideoKbps: 2600, Suffix: "3M", Bandwidth: 3_000_000},
}

// Catalog returns every known rung in ascending rank.
func Catalog() []Rung {
	return slices.Clone(catalog)
}

// Lookup returns the catalog entry for id.
func Lookup(id ID) (Rung, error) {
	for _, r := range catalog {
		if r.ID == id {
			return r, nil
		}
	}
	return Rung{}, fmt.Errorf("unknown rung %q", id)
}

func mustLookup(id ID) Rung {
	r, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return r
}

// SortAscending orders rungs by rank, lowest quality first.
func SortAscending(rungs []Rung) []Rung {
	out := slices.Clone(rungs)
	slices.SortFunc(out, func(a, b Rung) int { return a.Rank - b.Rank })
	return out
}
