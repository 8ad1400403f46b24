// Package theme derives the full set of style properties from the stored
// preferences. Derivation is pure: the same preferences always produce the
// same property map, and the whole map is re-applied on every change
// instead of diffing individual properties.
package theme

import (
	"context"
	"fmt"

	"github.com/readyinterview/client-go/internal/client/models"
	"github.com/readyinterview/client-go/internal/logging"
)

// StyleSink receives the complete derived property map. Implementations
// write the values to the document root (or a terminal, or a test map).
type StyleSink interface {
	Apply(props map[string]string)
}

// SinkFunc adapts a plain function to a StyleSink.
type SinkFunc func(props map[string]string)

func (f SinkFunc) Apply(props map[string]string) { f(props) }

const (
	variantDelta = 10
	baseFontPx   = 16.0
	baseSpacePx  = 8.0
)

var fontScale = map[models.FontSize]float64{
	models.FontSizeSmall:  0.875,
	models.FontSizeMedium: 1.0,
	models.FontSizeLarge:  1.125,
	models.FontSizeXLarge: 1.25,
}

var densityScale = map[models.Density]float64{
	models.DensityCompact:     0.75,
	models.DensityComfortable: 1.0,
	models.DensitySpacious:    1.25,
}

// Service turns preference values into style properties and pushes them
// to a sink.
type Service struct {
	sink StyleSink
	log  logging.Logger
}

func NewService(sink StyleSink, log logging.Logger) *Service {
	return &Service{sink: sink, log: log}
}

// Apply derives every property from prefs and hands the complete map to
// the sink. An unparsable accent color falls back to the default accent;
// unknown tier values fall back to the default tier.
func (s *Service) Apply(ctx context.Context, prefs models.Preferences) {
	props := Derive(prefs)
	s.sink.Apply(props)
	s.log.Debug(ctx, "applied theme",
		"theme", string(prefs.Theme),
		"accent", prefs.AccentColor,
		"properties", len(props))
}

// Derive computes the full property map for prefs.
func Derive(prefs models.Preferences) map[string]string {
	accent, err := ParseHex(prefs.AccentColor)
	if err != nil {
		accent, _ = ParseHex(models.DefaultPreferences().AccentColor)
	}
	light := accent.Lighter(variantDelta)
	dark := accent.Darker(variantDelta)

	fs, ok := fontScale[prefs.FontSize]
	if !ok {
		fs = fontScale[models.DefaultPreferences().FontSize]
	}
	ds, ok := densityScale[prefs.UIDensity]
	if !ok {
		ds = densityScale[models.DefaultPreferences().UIDensity]
	}

	scheme := "light"
	if prefs.Theme == models.ThemeDark {
		scheme = "dark"
	}
	animations := "1"
	if !prefs.AnimationsEnabled {
		animations = "0"
	}

	return map[string]string{
		"--color-scheme": scheme,

		"--accent-h": fmt.Sprintf("%d", accent.H),
		"--accent-s": fmt.Sprintf("%d%%", accent.S),
		"--accent-l": fmt.Sprintf("%d%%", accent.L),

		"--accent":       accent.String(),
		"--accent-light": light.String(),
		"--accent-dark":  dark.String(),

		"--font-size-base":   px(baseFontPx * fs),
		"--font-size-small":  px(baseFontPx * fs * 0.875),
		"--font-size-large":  px(baseFontPx * fs * 1.125),
		"--font-size-xlarge": px(baseFontPx * fs * 1.375),

		"--spacing-unit": px(baseSpacePx * ds),
		"--spacing-sm":   px(baseSpacePx * ds * 0.5),
		"--spacing-lg":   px(baseSpacePx * ds * 2),

		"--animations": animations,
	}
}

func px(v float64) string {
	return fmt.Sprintf("%.4gpx", v)
}
