package selector

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings are the user preferences the original bound through the desktop
// settings schema. They load from an optional config file plus FILESEL_*
// environment overrides; a missing file just yields the defaults.
type Settings struct {
	IconSize         int
	ThumbnailMode    ThumbnailMode
	ShowHidden       bool
	DirectoriesFirst bool
	SortMode         SortMode
	Reversed         bool
	DebounceWindow   time.Duration
}

// DefaultSettings mirrors the fallbacks used when no settings schema is
// installed.
func DefaultSettings() Settings {
	return Settings{
		IconSize:         defaultIconSize,
		ThumbnailMode:    ThumbnailsLocal,
		DirectoriesFirst: true,
		SortMode:         SortByName,
		DebounceWindow:   thumbnailDebounceWindow,
	}
}

// LoadSettings reads fileselect.yaml from the user config directory or the
// working directory. Unreadable config is logged and ignored.
func LoadSettings() Settings {
	v := viper.New()
	v.SetConfigName("fileselect")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "fileselect"))
	}
	v.AddConfigPath(".")
	v.SetEnvPrefix("FILESEL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	def := DefaultSettings()
	v.SetDefault("icon-size", def.IconSize)
	v.SetDefault("thumbnail-mode", def.ThumbnailMode.String())
	v.SetDefault("show-hidden", def.ShowHidden)
	v.SetDefault("directories-first", def.DirectoriesFirst)
	v.SetDefault("sort-mode", def.SortMode.String())
	v.SetDefault("reversed", def.Reversed)
	v.SetDefault("debounce-window", def.DebounceWindow)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logger.Warn().Err(err).Msg("ignoring unreadable config")
		}
	}

	return Settings{
		IconSize:         v.GetInt("icon-size"),
		ThumbnailMode:    ParseThumbnailMode(v.GetString("thumbnail-mode")),
		ShowHidden:       v.GetBool("show-hidden"),
		DirectoriesFirst: v.GetBool("directories-first"),
		SortMode:         ParseSortMode(v.GetString("sort-mode")),
		Reversed:         v.GetBool("reversed"),
		DebounceWindow:   v.GetDuration("debounce-window"),
	}
}

// Apply configures a view from the settings.
func (s Settings) Apply(v *DirView) {
	v.SetIconSize(s.IconSize)
	v.SetThumbnailMode(s.ThumbnailMode)
	v.SetShowHidden(s.ShowHidden)
	v.SetDirectoriesFirst(s.DirectoriesFirst)
	v.SetSorting(s.SortMode, s.Reversed)
	v.SetDebounceWindow(s.DebounceWindow)
}

// ParseThumbnailMode maps a settings string to a mode, defaulting to local.
func ParseThumbnailMode(s string) ThumbnailMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "never":
		return ThumbnailsNever
	case "service":
		return ThumbnailsService
	default:
		return ThumbnailsLocal
	}
}

// ParseSortMode maps a settings string to a criterion, defaulting to name.
func ParseSortMode(s string) SortMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "modified", "mtime", "modification-time":
		return SortByModified
	default:
		return SortByName
	}
}
