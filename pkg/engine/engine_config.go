package engine

import (
	"github.com/graphlapse/graphlapse/pkg/placement"
)

// frameOptions is the fully-resolved tuning set for one frame: recognized
// keys applied over defaults, out-of-range values clamped, unknown keys
// ignored. Option handling never rejects input.
type frameOptions struct {
	placement.Params

	// CommunityScale stretches or shrinks the spacing used when packing
	// community anchors inside a component.
	CommunityScale float64
}

const (
	defaultQuality    = 1.0
	defaultStability  = 0.6
	defaultSpacing    = 10.0
	defaultAttraction = 0.12
	defaultRepulsion  = 0.85
	defaultGravity    = 0.06
)

func resolveOptions(raw map[string]float64) frameOptions {
	opts := frameOptions{
		Params: placement.Params{
			Quality:    defaultQuality,
			Stability:  defaultStability,
			Spacing:    defaultSpacing,
			Attraction: defaultAttraction,
			Repulsion:  defaultRepulsion,
			Gravity:    defaultGravity,
		},
		CommunityScale: 1.0,
	}

	if v, ok := raw["quality"]; ok {
		opts.Quality = clampFloat(v, 0.5, 1.5)
	}
	if v, ok := raw["stability"]; ok {
		opts.Stability = clampFloat(v, 0, 0.95)
	}
	if v, ok := raw["nodeSpacing"]; ok {
		opts.Spacing = clampFloat(v, 4, 20)
	}
	if v, ok := raw["iterations"]; ok {
		opts.Iterations = clampInt(v, 0, 500)
	}
	if v, ok := raw["attractionStrength"]; ok {
		opts.Attraction = clampFloat(v, 0.01, 1)
	}
	if v, ok := raw["repulsionStrength"]; ok {
		opts.Repulsion = clampFloat(v, 0.05, 5)
	}
	if v, ok := raw["gravityStrength"]; ok {
		opts.Gravity = clampFloat(v, 0, 0.5)
	}
	if v, ok := raw["refinementIterations"]; ok {
		opts.RefinementIterations = clampInt(v, 0, 10)
	}
	if v, ok := raw["communityPlacementScale"]; ok {
		opts.CommunityScale = clampFloat(v, 0.5, 2)
	}

	return opts
}

func clampFloat(v, min, max float64) float64 {
	if v != v { // NaN
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v float64, min, max int) int {
	i := int(v)
	if i < min {
		return min
	}
	if i > max {
		return max
	}
	return i
}
