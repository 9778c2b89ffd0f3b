package evaluation

import (
	"fmt"
	"strings"

	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

const (
	// FloorRating is returned when the RTT exceeds every band.
	FloorRating = 1
	// MaxRating is the best possible latency rating.
	MaxRating = 5
)

// Band maps RTTs up to and including MaxMs to Rating.
type Band struct {
	MaxMs  float64 `json:"max_ms" yaml:"max_ms" mapstructure:"max_ms"`
	Rating int     `json:"rating" yaml:"rating" mapstructure:"rating"`
}

// RatingBands is an ordered ascending threshold table.
type RatingBands []Band

// Rating presets. Regional suits intra-region links and is the default;
// continental is keyed in tens of milliseconds for cross-continent links.
const (
	PresetRegional    = "regional"
	PresetContinental = "continental"
)

var presets = map[string]RatingBands{
	PresetRegional: {
		{MaxMs: 2, Rating: 5},
		{MaxMs: 3, Rating: 4},
		{MaxMs: 5, Rating: 3},
		{MaxMs: 8, Rating: 2},
	},
	PresetContinental: {
		{MaxMs: 50, Rating: 5},
		{MaxMs: 100, Rating: 4},
		{MaxMs: 200, Rating: 3},
		{MaxMs: 300, Rating: 2},
	},
}

// DefaultBands returns a copy of the regional table.
func DefaultBands() RatingBands {
	bands, _ := PresetBands(PresetRegional)
	return bands
}

// PresetBands returns a copy of the named preset.
func PresetBands(name string) (RatingBands, error) {
	bands, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", sharedErrors.ErrUnknownPreset, name)
	}
	return append(RatingBands(nil), bands...), nil
}

// Validate checks that thresholds ascend and ratings never increase.
func (b RatingBands) Validate() error {
	if len(b) == 0 {
		return sharedErrors.ErrEmptyBands
	}
	for i, band := range b {
		if band.Rating < FloorRating || band.Rating > MaxRating {
			return fmt.Errorf("%w: band %d has rating %d", sharedErrors.ErrBandRating, i, band.Rating)
		}
		if i == 0 {
			continue
		}
		prev := b[i-1]
		if band.MaxMs <= prev.MaxMs {
			return fmt.Errorf("%w: %.2f after %.2f", sharedErrors.ErrBandOrder, band.MaxMs, prev.MaxMs)
		}
		if band.Rating > prev.Rating {
			return fmt.Errorf("%w: band %d rates %d above %d", sharedErrors.ErrBandRating, i, band.Rating, prev.Rating)
		}
	}
	return nil
}

// Rate maps an average RTT in milliseconds to a 1..5 rating.
func (b RatingBands) Rate(avgMs float64) int {
	for _, band := range b {
		if avgMs <= band.MaxMs {
			return band.Rating
		}
	}
	return FloorRating
}

func (b RatingBands) String() string {
	parts := make([]string, 0, len(b)+1)
	for _, band := range b {
		parts = append(parts, fmt.Sprintf("<=%gms:%d", band.MaxMs, band.Rating))
	}
	parts = append(parts, fmt.Sprintf("else:%d", FloorRating))
	return strings.Join(parts, " ")
}
