package selector

import (
	"os"
	"testing"
	"time"
)

// chdir changes into dir for the duration of the test, mirroring t.Chdir
// (which needs Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.IconSize != 96 {
		t.Errorf("icon size: got %d, want 96", s.IconSize)
	}
	if s.ThumbnailMode != ThumbnailsLocal {
		t.Errorf("thumbnail mode: got %v, want local", s.ThumbnailMode)
	}
	if !s.DirectoriesFirst {
		t.Error("directories-first should default on")
	}
	if s.SortMode != SortByName || s.Reversed {
		t.Errorf("sort defaults: got %v reversed=%v", s.SortMode, s.Reversed)
	}
	if s.ShowHidden {
		t.Error("hidden files should default off")
	}
	if s.DebounceWindow != time.Second {
		t.Errorf("debounce window: got %v, want 1s", s.DebounceWindow)
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	// An empty directory means no config file: defaults all the way.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdir(t, t.TempDir())

	got := LoadSettings()
	if got != DefaultSettings() {
		t.Errorf("LoadSettings without config: got %+v, want defaults", got)
	}
}

func TestLoadSettingsEnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	chdir(t, t.TempDir())

	t.Setenv("FILESEL_ICON_SIZE", "48")
	t.Setenv("FILESEL_THUMBNAIL_MODE", "service")
	t.Setenv("FILESEL_SHOW_HIDDEN", "true")
	t.Setenv("FILESEL_SORT_MODE", "modified")
	t.Setenv("FILESEL_REVERSED", "true")

	got := LoadSettings()
	if got.IconSize != 48 {
		t.Errorf("icon size: got %d, want 48", got.IconSize)
	}
	if got.ThumbnailMode != ThumbnailsService {
		t.Errorf("thumbnail mode: got %v, want service", got.ThumbnailMode)
	}
	if !got.ShowHidden {
		t.Error("show-hidden override ignored")
	}
	if got.SortMode != SortByModified || !got.Reversed {
		t.Errorf("sort override ignored: %v reversed=%v", got.SortMode, got.Reversed)
	}
}

func TestSettingsApply(t *testing.T) {
	v := NewDirView(Callbacks{})
	defer v.Close()

	s := Settings{
		IconSize:         64,
		ThumbnailMode:    ThumbnailsNever,
		ShowHidden:       true,
		DirectoriesFirst: false,
		SortMode:         SortByModified,
		Reversed:         true,
		DebounceWindow:   200 * time.Millisecond,
	}
	s.Apply(v)

	if v.IconSize() != 64 {
		t.Errorf("icon size: got %d", v.IconSize())
	}
	if v.ThumbnailMode() != ThumbnailsNever {
		t.Errorf("thumbnail mode: got %v", v.ThumbnailMode())
	}
	if !v.ShowHidden() {
		t.Error("show-hidden not applied")
	}
	if v.DirectoriesFirst() {
		t.Error("directories-first not applied")
	}
	mode, reversed := v.Sorting()
	if mode != SortByModified || !reversed {
		t.Errorf("sorting not applied: %v reversed=%v", mode, reversed)
	}
}

func TestParseModes(t *testing.T) {
	if ParseThumbnailMode(" Service ") != ThumbnailsService {
		t.Error("thumbnail mode parsing should trim and fold case")
	}
	if ParseThumbnailMode("bogus") != ThumbnailsLocal {
		t.Error("unknown thumbnail mode should default to local")
	}
	if ParseSortMode("mtime") != SortByModified {
		t.Error("mtime alias not recognized")
	}
	if ParseSortMode("bogus") != SortByName {
		t.Error("unknown sort mode should default to name")
	}
}
