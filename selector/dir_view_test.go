package selector

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// testFolder creates a fixture directory with a known mix of entries.
func testFolder(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	base := time.Now().Add(-time.Hour)
	files := []string{"b.txt", "Alpha.txt", ".hidden", "photo.png"}
	for i, name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
		mtime := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

// loadedView builds a view over a fixture folder and waits for the initial
// listing.
func loadedView(t *testing.T, cb Callbacks) (*DirView, string) {
	t.Helper()
	v := NewDirView(cb)
	t.Cleanup(v.Close)

	dir := testFolder(t)
	v.SetFolder(dir)
	if !waitFor(t, 2*time.Second, func() bool { return v.DisplayMode() != DisplayLoading }) {
		t.Fatal("listing never finished loading")
	}
	return v, dir
}

func visibleNames(v *DirView) []string {
	entries := v.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func expectNames(t *testing.T, v *DirView, want []string) {
	t.Helper()
	got := visibleNames(v)
	if len(got) != len(want) {
		t.Fatalf("visible entries: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visible entries: got %v, want %v", got, want)
		}
	}
}

func TestDirViewInitialListing(t *testing.T) {
	v, _ := loadedView(t, Callbacks{})

	// Hidden files are off by default; directories come first; names sort
	// byte-wise so uppercase precedes lowercase.
	expectNames(t, v, []string{"subdir", "Alpha.txt", "b.txt", "photo.png"})

	if v.DisplayMode() != DisplayContent {
		t.Errorf("display mode after load: got %v, want content", v.DisplayMode())
	}
}

func TestDirViewShowHidden(t *testing.T) {
	v, _ := loadedView(t, Callbacks{})

	v.SetShowHidden(true)
	expectNames(t, v, []string{"subdir", ".hidden", "Alpha.txt", "b.txt", "photo.png"})

	v.SetShowHidden(false)
	expectNames(t, v, []string{"subdir", "Alpha.txt", "b.txt", "photo.png"})
}

func TestDirViewSearch(t *testing.T) {
	var mu sync.Mutex
	var modes []DisplayMode
	v, _ := loadedView(t, Callbacks{
		DisplayModeChanged: func(m DisplayMode) {
			mu.Lock()
			modes = append(modes, m)
			mu.Unlock()
		},
	})

	v.SetSearchTerm("al")
	expectNames(t, v, []string{"Alpha.txt"})
	if v.DisplayMode() != DisplaySearch {
		t.Errorf("display mode with term: got %v, want search", v.DisplayMode())
	}

	// Extending the term is stricter, never widening.
	v.SetSearchTerm("alx")
	expectNames(t, v, []string{})

	// Shortening it restores matches from the full set.
	v.SetSearchTerm("a")
	expectNames(t, v, []string{"Alpha.txt"})

	v.SetSearchTerm("")
	if v.DisplayMode() != DisplayContent {
		t.Errorf("display mode after clearing: got %v, want content", v.DisplayMode())
	}

	mu.Lock()
	defer mu.Unlock()
	if len(modes) == 0 {
		t.Error("DisplayModeChanged never fired")
	}
}

func TestDirViewSortingInversion(t *testing.T) {
	v, _ := loadedView(t, Callbacks{})

	v.SetSorting(SortByName, true)
	expectNames(t, v, []string{"subdir", "photo.png", "b.txt", "Alpha.txt"})

	v.SetSorting(SortByModified, false)
	expectNames(t, v, []string{"subdir", "b.txt", "Alpha.txt", "photo.png"})

	v.SetReversed(true)
	expectNames(t, v, []string{"subdir", "photo.png", "Alpha.txt", "b.txt"})
}

func TestDirViewTypeFilter(t *testing.T) {
	v, _ := loadedView(t, Callbacks{})

	tf := &TypeFilter{Name: "Images", MimeTypes: []string{"image/*"}}
	v.SetTypeFilter(tf)
	expectNames(t, v, []string{"subdir", "photo.png"})

	if got := v.TypeFilter(); got != tf {
		t.Error("TypeFilter getter should return the filter as set")
	}

	v.SetTypeFilter(nil)
	expectNames(t, v, []string{"subdir", "Alpha.txt", "b.txt", "photo.png"})
}

func TestDirViewSelect(t *testing.T) {
	var mu sync.Mutex
	var gotURI, gotName string
	v, dir := loadedView(t, Callbacks{
		NewURI: func(uri string) {
			mu.Lock()
			gotURI = uri
			mu.Unlock()
		},
		NewFilename: func(name string) {
			mu.Lock()
			gotName = name
			mu.Unlock()
		},
	})

	// Index 0 is the subdir: navigation, not selection.
	v.Select(0)
	mu.Lock()
	if gotURI != PathToURI(filepath.Join(dir, "subdir")) {
		t.Errorf("selecting a directory should report its URI, got %q", gotURI)
	}
	mu.Unlock()
	if v.HasSelection() {
		t.Error("selecting a directory must not enable accept")
	}

	// Index 1 is Alpha.txt: selection.
	v.Select(1)
	mu.Lock()
	if gotName != "Alpha.txt" {
		t.Errorf("selecting a file should report its name, got %q", gotName)
	}
	mu.Unlock()
	if !v.HasSelection() {
		t.Error("selecting a file should enable accept")
	}

	sel := v.Selected()
	if len(sel) != 1 || sel[0] != PathToURI(filepath.Join(dir, "Alpha.txt")) {
		t.Errorf("Selected: got %v", sel)
	}
}

func TestDirViewSelectItem(t *testing.T) {
	v, dir := loadedView(t, Callbacks{})

	uri := PathToURI(filepath.Join(dir, "b.txt"))
	if !v.SelectItem(uri) {
		t.Fatal("SelectItem failed for a visible entry")
	}
	sel := v.Selected()
	if len(sel) != 1 || sel[0] != uri {
		t.Errorf("Selected after SelectItem: got %v", sel)
	}

	if v.SelectItem("file:///no/such/entry") {
		t.Error("SelectItem should fail for an unknown URI")
	}
}

func TestDirViewDirectoriesOnly(t *testing.T) {
	var mu sync.Mutex
	var has bool
	v, dir := loadedView(t, Callbacks{
		HasSelectionChanged: func(h bool) {
			mu.Lock()
			has = h
			mu.Unlock()
		},
	})

	v.SetDirectoriesOnly(true)
	expectNames(t, v, []string{"subdir"})

	// The current folder is a valid directory, so there is always a
	// selection to accept.
	if !v.HasSelection() {
		t.Error("directories-only over an existing folder should have a selection")
	}
	mu.Lock()
	if !has {
		t.Error("HasSelectionChanged should have reported true")
	}
	mu.Unlock()

	sel := v.Selected()
	if len(sel) != 1 || sel[0] != PathToURI(dir) {
		t.Errorf("Selected in directories-only mode: got %v, want the folder URI", sel)
	}
}

func TestDirViewSelectionSurvivesResort(t *testing.T) {
	v, dir := loadedView(t, Callbacks{})

	uri := PathToURI(filepath.Join(dir, "Alpha.txt"))
	if !v.SelectItem(uri) {
		t.Fatal("SelectItem failed")
	}

	v.SetSorting(SortByName, true)
	sel := v.Selected()
	if len(sel) != 1 || sel[0] != uri {
		t.Errorf("selection lost across resort: got %v", sel)
	}
}

func TestDirViewListingError(t *testing.T) {
	errs := make(chan error, 1)
	v := NewDirView(Callbacks{
		ListingError: func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
	})
	defer v.Close()

	v.SetFolder(filepath.Join(t.TempDir(), "does-not-exist"))

	select {
	case err := <-errs:
		if err == nil {
			t.Error("ListingError delivered nil")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ListingError never fired")
	}
	if len(v.Entries()) != 0 {
		t.Error("failed listing should leave the view empty")
	}
}

func TestDirViewSetFolderSameIsNoop(t *testing.T) {
	v, dir := loadedView(t, Callbacks{})

	if !v.SelectItem(PathToURI(filepath.Join(dir, "b.txt"))) {
		t.Fatal("SelectItem failed")
	}
	v.SetFolder(dir)

	// Re-setting the same folder must not restart the listing or drop
	// selection state.
	if len(v.Selected()) != 1 {
		t.Error("selection lost after no-op SetFolder")
	}
	if v.DisplayMode() == DisplayLoading {
		t.Error("no-op SetFolder restarted loading")
	}
}

func TestDirViewObserveRoutesToBatcher(t *testing.T) {
	ready := make(chan *Entry, 4)
	v := NewDirView(Callbacks{
		ThumbnailReady: func(e *Entry) { ready <- e },
	})
	defer v.Close()
	v.SetDebounceWindow(10 * time.Millisecond)

	ft := &fakeThumbnailer{}
	v.SetThumbnailer(ft)

	e := &Entry{URI: "file:///pic.png", Name: "pic.png"}

	// Thumbnails disabled: nothing may reach the batcher.
	v.SetThumbnailMode(ThumbnailsNever)
	v.ObserveThumbnail(e)
	time.Sleep(50 * time.Millisecond)
	if ft.batchCount() != 0 {
		t.Fatal("observe with thumbnails disabled reached the backend")
	}

	v.SetThumbnailMode(ThumbnailsLocal)
	v.ObserveThumbnail(e)
	if !waitFor(t, time.Second, func() bool { return ft.batchCount() == 1 }) {
		t.Fatal("observe never flushed to the backend")
	}

	v.ApplyThumbnails(map[string]string{"file:///pic.png": "/cache/pic.jpg"})
	select {
	case got := <-ready:
		if got.ThumbnailPath != "/cache/pic.jpg" {
			t.Errorf("thumbnail path: got %q", got.ThumbnailPath)
		}
	case <-time.After(time.Second):
		t.Fatal("ThumbnailReady never fired")
	}
}
