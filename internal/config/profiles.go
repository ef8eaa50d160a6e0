package config

import (
	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
)

// RateLimit caps successful uploads per user over a sliding window.
type RateLimit struct {
	MaxUploads int
	PeriodDays int
}

// Resolution is a named secondary output size for image profiles.
type Resolution struct {
	Name   string
	Width  int
	Height int
}

// Profile is a named configuration bundle selected at claim-creation time.
// Profiles are built once at startup and injected; never mutated at runtime.
type Profile struct {
	Name       string
	Kind       model.AssetKind
	PathPrefix string

	// Image constraints. Zero values mean unconstrained.
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int

	// AspectRatio is width/height; 0 disables the check. AspectTolerance is
	// the allowed relative deviation (e.g. 0.075 for ±7.5%).
	AspectRatio     float64
	AspectTolerance float64

	TargetFormat     string // jpeg or png
	Quality          int    // jpeg quality, 1-100
	ExtraResolutions []Resolution

	RateLimit *RateLimit // nil means unlimited
}

// Profiles is the immutable profile table.
type Profiles map[string]Profile

// Get looks up a profile by name.
func (p Profiles) Get(name string) (Profile, bool) {
	prof, ok := p[name]
	return prof, ok
}

// DefaultProfiles returns the built-in profile table.
func DefaultProfiles() Profiles {
	return Profiles{
		"profile_picture": {
			Name:            "profile_picture",
			Kind:            model.AssetKindImage,
			PathPrefix:      "profiles",
			MinWidth:        200,
			MinHeight:       200,
			MaxWidth:        4096,
			MaxHeight:       4096,
			AspectRatio:     1.0,
			AspectTolerance: 0.075,
			TargetFormat:    "jpeg",
			Quality:         85,
			ExtraResolutions: []Resolution{
				{Name: "small", Width: 128, Height: 128},
				{Name: "medium", Width: 256, Height: 256},
			},
			RateLimit: &RateLimit{MaxUploads: 10, PeriodDays: 1},
		},
		"banner": {
			Name:            "banner",
			Kind:            model.AssetKindImage,
			PathPrefix:      "banners",
			MinWidth:        800,
			MinHeight:       200,
			MaxWidth:        8192,
			MaxHeight:       2048,
			AspectRatio:     4.0,
			AspectTolerance: 0.10,
			TargetFormat:    "jpeg",
			Quality:         85,
			ExtraResolutions: []Resolution{
				{Name: "preview", Width: 960, Height: 240},
			},
			RateLimit: &RateLimit{MaxUploads: 5, PeriodDays: 1},
		},
		"user_video": {
			Name:       "user_video",
			Kind:       model.AssetKindVideo,
			PathPrefix: "videos",
			RateLimit:  &RateLimit{MaxUploads: 3, PeriodDays: 7},
		},
	}
}
