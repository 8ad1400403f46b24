package models

// Theme selects the light or dark surface palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// FontSize is one of four named text-size tiers.
type FontSize string

const (
	FontSizeSmall  FontSize = "small"
	FontSizeMedium FontSize = "medium"
	FontSizeLarge  FontSize = "large"
	FontSizeXLarge FontSize = "xlarge"
)

// Density is one of three named spacing tiers.
type Density string

const (
	DensityCompact     Density = "compact"
	DensityComfortable Density = "comfortable"
	DensitySpacious    Density = "spacious"
)

// Preferences are the persisted per-device settings. Each field is read
// independently at startup, defaulted if absent, and written back on change.
// There is no transactional grouping and no versioning.
type Preferences struct {
	Theme                Theme
	AccentColor          string // hex, e.g. "#6366f1"
	FontSize             FontSize
	UIDensity            Density
	AnimationsEnabled    bool
	SelectedLanguage     string // ISO code
	NotificationsEnabled bool
}

// DefaultPreferences returns the values used when nothing is stored yet.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:                ThemeLight,
		AccentColor:          "#6366f1",
		FontSize:             FontSizeMedium,
		UIDensity:            DensityComfortable,
		AnimationsEnabled:    true,
		SelectedLanguage:     "en",
		NotificationsEnabled: true,
	}
}
