package selector

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Callbacks deliver view-model change notifications to the rendering layer.
// All fields are optional. Callbacks may fire from internal goroutines
// (listing updates, thumbnail delivery); renderers that are not thread-safe
// must hop to their own dispatch loop.
type Callbacks struct {
	// EntriesChanged fires whenever the visible entry set or its order
	// changed.
	EntriesChanged func()
	// DisplayModeChanged fires on Content/Search/Loading transitions.
	DisplayModeChanged func(DisplayMode)
	// HasSelectionChanged fires when the accept affordance should toggle.
	HasSelectionChanged func(bool)
	// NewURI fires when a directory entry was chosen: browse there.
	NewURI func(uri string)
	// NewFilename fires when a file entry was chosen: the UI should
	// consider updating the displayed filename.
	NewFilename func(name string)
	// ThumbnailReady fires once a pending entry received its thumbnail.
	ThumbnailReady func(*Entry)
	// ListingError reports a failed directory read. Browsing continues.
	ListingError func(error)
}

// DirView is the toolkit-independent view-model of a directory browser:
// a live listing of the current folder with multi-criteria sorting,
// incremental filtering, prefix search and debounced thumbnail batching.
// It replaces the property/binding machinery of a widget toolkit with plain
// setters and the Callbacks above.
type DirView struct {
	mu sync.Mutex

	folder  string
	entries []*Entry // raw listing order
	visible []*Entry // filtered and sorted

	sort            sorter
	searchTerm      string
	showHidden      bool
	directoriesOnly bool
	typeFilter      *TypeFilter
	realFilter      *TypeFilter // typeFilter plus directories

	iconSize      int
	thumbnailMode ThumbnailMode

	loading     bool
	displayMode DisplayMode

	selected     int // index into visible, -1 when none
	hasSelection bool

	batcher *ThumbnailBatcher
	listing *listing

	cb Callbacks
}

// NewDirView creates an empty view with the defaults the original dialog
// starts with: sort by name, directories first, no thumbnailing backend.
func NewDirView(cb Callbacks) *DirView {
	v := &DirView{
		sort:     sorter{mode: SortByName, dirsFirst: true},
		iconSize: defaultIconSize,
		selected: -1,
		cb:       cb,
	}
	v.batcher = NewThumbnailBatcher(nil, 0, func(e *Entry) {
		if cb.ThumbnailReady != nil {
			cb.ThumbnailReady(e)
		}
	})
	return v
}

// SetThumbnailer wires a thumbnailing backend into the debounce batcher.
func (v *DirView) SetThumbnailer(t Thumbnailer) {
	v.batcher.SetThumbnailer(t)
}

// SetDebounceWindow overrides the thumbnail quiescence window.
func (v *DirView) SetDebounceWindow(d time.Duration) {
	v.batcher.SetWindow(d)
}

// ApplyThumbnails feeds a batch result into the pending set. Thumbnailer
// implementations use this as their done callback.
func (v *DirView) ApplyThumbnails(thumbnails map[string]string) {
	v.batcher.Results(thumbnails)
}

// ObserveThumbnail registers an entry as it becomes visible, so a thumbnail
// gets requested for it in the next batch. No-op when thumbnails are off or
// the entry already has one.
func (v *DirView) ObserveThumbnail(e *Entry) {
	v.mu.Lock()
	mode := v.thumbnailMode
	v.mu.Unlock()

	if mode == ThumbnailsNever {
		return
	}
	v.batcher.Observe(e)
}

// SetFolder switches the view to a directory. Pending thumbnail state is
// cancelled, the old listing is torn down and a fresh one starts loading.
// Setting the current folder again is a no-op.
func (v *DirView) SetFolder(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}

	v.mu.Lock()
	if v.folder == abs {
		v.mu.Unlock()
		return
	}
	logger.Debug().Str("folder", abs).Msg("loading folder")

	v.folder = abs
	v.selected = -1
	notes := v.startListingLocked()
	if n := v.updateDirectorySelectionLocked(); n != nil {
		notes = append(notes, n)
	}
	v.mu.Unlock()

	runNotes(notes)
}

// Refresh re-reads the current folder.
func (v *DirView) Refresh() {
	v.mu.Lock()
	if v.folder == "" {
		v.mu.Unlock()
		return
	}
	notes := v.startListingLocked()
	v.mu.Unlock()

	runNotes(notes)
}

// startListingLocked cancels the previous listing and thumbnail cycle and
// starts loading v.folder.
func (v *DirView) startListingLocked() []func() {
	if v.listing != nil {
		v.listing.stop()
	}
	v.batcher.Cancel()

	v.loading = true
	var notes []func()
	if n := v.updateDisplayModeLocked(); n != nil {
		notes = append(notes, n)
	}

	l := newListing(v, v.folder)
	v.listing = l
	go l.run()
	return notes
}

// SetSearchTerm updates the search filter. The term is normalized (trimmed,
// lowercased) once here; matching is a prefix test on the display name. The
// change is classified against the previous term so refiltering can stay
// incremental.
func (v *DirView) SetSearchTerm(term string) {
	norm := normalizeTerm(term)

	v.mu.Lock()
	if v.searchTerm == norm {
		v.mu.Unlock()
		return
	}
	change := classifyTermChange(v.searchTerm, norm)
	v.searchTerm = norm

	notes := v.refilterLocked(change)
	if n := v.updateDisplayModeLocked(); n != nil {
		notes = append(notes, n)
	}
	v.mu.Unlock()

	runNotes(notes)
}

// SetShowHidden toggles dotfile visibility.
func (v *DirView) SetShowHidden(show bool) {
	v.mu.Lock()
	if v.showHidden == show {
		v.mu.Unlock()
		return
	}
	logger.Debug().Bool("show_hidden", show).Msg("filter changed")
	v.showHidden = show

	change := FilterChangeMoreStrict
	if show {
		change = FilterChangeLessStrict
	}
	notes := v.refilterLocked(change)
	v.mu.Unlock()

	runNotes(notes)
}

// SetDirectoriesOnly switches between file and directory selection. In
// directory mode the current location itself counts as the selection
// whenever it is a real filesystem path.
func (v *DirView) SetDirectoriesOnly(dirsOnly bool) {
	v.mu.Lock()
	if v.directoriesOnly == dirsOnly {
		v.mu.Unlock()
		return
	}
	logger.Debug().Bool("directories_only", dirsOnly).Msg("filter changed")
	v.directoriesOnly = dirsOnly

	change := FilterChangeLessStrict
	if dirsOnly {
		change = FilterChangeMoreStrict
	}
	notes := v.refilterLocked(change)
	if n := v.updateDirectorySelectionLocked(); n != nil {
		notes = append(notes, n)
	}
	v.mu.Unlock()

	runNotes(notes)
}

// SetTypeFilter restricts visible files to the filter's MIME types.
// Directories are always exempt so navigation stays possible; the caller's
// filter is copied, not mutated. A nil filter shows everything.
func (v *DirView) SetTypeFilter(tf *TypeFilter) {
	v.mu.Lock()
	v.typeFilter = tf
	if tf != nil {
		logger.Debug().Str("filter", tf.Name).Msg("setting type filter")
		v.realFilter = tf.withDirectories()
	} else {
		logger.Debug().Msg("clearing type filter")
		v.realFilter = nil
	}
	notes := v.refilterLocked(FilterChangeDifferent)
	v.mu.Unlock()

	runNotes(notes)
}

// SetSorting sets the sort criterion and direction together. When only the
// direction flips the existing order is inverted in place instead of
// re-sorted.
func (v *DirView) SetSorting(mode SortMode, reversed bool) {
	v.mu.Lock()
	if v.sort.mode == mode && v.sort.reversed == reversed {
		v.mu.Unlock()
		return
	}
	logger.Debug().Stringer("mode", mode).Bool("reversed", reversed).Msg("sorting changed")

	change := SortChangeDifferent
	if v.sort.mode == mode {
		change = SortChangeInverted
	}
	v.sort.mode = mode
	v.sort.reversed = reversed

	notes := v.resortLocked(change)
	v.mu.Unlock()

	runNotes(notes)
}

// SetSortMode keeps the current direction.
func (v *DirView) SetSortMode(mode SortMode) {
	v.mu.Lock()
	reversed := v.sort.reversed
	v.mu.Unlock()
	v.SetSorting(mode, reversed)
}

// SetReversed keeps the current criterion.
func (v *DirView) SetReversed(reversed bool) {
	v.mu.Lock()
	mode := v.sort.mode
	v.mu.Unlock()
	v.SetSorting(mode, reversed)
}

// SetDirectoriesFirst toggles grouping directories before files.
func (v *DirView) SetDirectoriesFirst(first bool) {
	v.mu.Lock()
	if v.sort.dirsFirst == first {
		v.mu.Unlock()
		return
	}
	v.sort.dirsFirst = first
	notes := v.resortLocked(SortChangeDifferent)
	v.mu.Unlock()

	runNotes(notes)
}

// SetIconSize stores the icon size renderers should use.
func (v *DirView) SetIconSize(size int) {
	v.mu.Lock()
	v.iconSize = size
	v.mu.Unlock()
}

// SetThumbnailMode selects the thumbnailing policy.
func (v *DirView) SetThumbnailMode(mode ThumbnailMode) {
	v.mu.Lock()
	v.thumbnailMode = mode
	v.mu.Unlock()
}

// Select marks the entry at index i (into the visible set) as chosen.
// Choosing a directory navigates (NewURI) instead of selecting; choosing a
// file enables the accept affordance and reports the name (NewFilename).
func (v *DirView) Select(i int) {
	v.mu.Lock()
	if i < 0 || i >= len(v.visible) {
		v.mu.Unlock()
		return
	}
	v.selected = i
	e := v.visible[i]

	var notes []func()
	if e.Dir {
		if v.cb.NewURI != nil {
			uri := e.URI
			notes = append(notes, func() { v.cb.NewURI(uri) })
		}
		if !v.directoriesOnly {
			if n := v.setHasSelectionLocked(false); n != nil {
				notes = append(notes, n)
			}
		}
	} else {
		if v.cb.NewFilename != nil {
			name := e.Name
			notes = append(notes, func() { v.cb.NewFilename(name) })
		}
		if !v.directoriesOnly {
			if n := v.setHasSelectionLocked(true); n != nil {
				notes = append(notes, n)
			}
		}
	}
	v.mu.Unlock()

	runNotes(notes)
}

// SelectItem selects the visible entry with the given URI, if any.
func (v *DirView) SelectItem(uri string) bool {
	v.mu.Lock()
	idx := -1
	for i, e := range v.visible {
		if e.URI == uri {
			idx = i
			break
		}
	}
	v.mu.Unlock()

	if idx < 0 {
		return false
	}
	v.Select(idx)
	return true
}

// Activate selects index i and reports whether the selection is acceptable.
func (v *DirView) Activate(i int) bool {
	v.Select(i)
	return v.HasSelection()
}

// Selected returns the URIs the accept action should act on: the selected
// entry, or in directories-only mode the current folder whenever it is a
// real filesystem path.
func (v *DirView) Selected() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.directoriesOnly {
		if v.folder == "" {
			return nil
		}
		if info, err := os.Stat(v.folder); err != nil || !info.IsDir() {
			return nil
		}
		return []string{PathToURI(v.folder)}
	}

	if v.selected < 0 || v.selected >= len(v.visible) {
		return nil
	}
	return []string{v.visible[v.selected].URI}
}

// Entries returns a snapshot of the visible, ordered entry set.
func (v *DirView) Entries() []*Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*Entry, len(v.visible))
	copy(out, v.visible)
	return out
}

func (v *DirView) Folder() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.folder
}

func (v *DirView) SearchTerm() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.searchTerm
}

func (v *DirView) DisplayMode() DisplayMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.displayMode
}

func (v *DirView) HasSelection() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hasSelection
}

func (v *DirView) ShowHidden() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.showHidden
}

func (v *DirView) DirectoriesOnly() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.directoriesOnly
}

// TypeFilter returns the filter as the caller set it, without the internal
// directory exemption.
func (v *DirView) TypeFilter() *TypeFilter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.typeFilter
}

func (v *DirView) Sorting() (SortMode, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sort.mode, v.sort.reversed
}

func (v *DirView) DirectoriesFirst() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sort.dirsFirst
}

func (v *DirView) IconSize() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.iconSize
}

func (v *DirView) ThumbnailMode() ThumbnailMode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.thumbnailMode
}

// Close tears the view down: the listing stops and in-flight thumbnail work
// is cancelled so no late result mutates entries of a dead view.
func (v *DirView) Close() {
	v.mu.Lock()
	if v.listing != nil {
		v.listing.stop()
		v.listing = nil
	}
	v.mu.Unlock()
	v.batcher.Cancel()
}

// --- listing delivery (called from the listing goroutine) ---

func (v *DirView) listingLoaded(l *listing, entries []*Entry) {
	v.mu.Lock()
	if v.listing != l {
		v.mu.Unlock()
		return
	}
	v.entries = entries
	v.rebuildLocked()
	v.loading = false

	notes := []func(){v.entriesChangedNote()}
	if n := v.updateDisplayModeLocked(); n != nil {
		notes = append(notes, n)
	}
	v.mu.Unlock()

	runNotes(notes)
}

func (v *DirView) listingFailed(l *listing, err error) {
	v.mu.Lock()
	if v.listing != l {
		v.mu.Unlock()
		return
	}
	v.entries = nil
	v.rebuildLocked()
	v.loading = false

	notes := []func(){v.entriesChangedNote()}
	if n := v.updateDisplayModeLocked(); n != nil {
		notes = append(notes, n)
	}
	folder := v.folder
	v.mu.Unlock()

	logger.Warn().Err(err).Str("folder", folder).Msg("listing failed")
	if v.cb.ListingError != nil {
		v.cb.ListingError(err)
	}
	runNotes(notes)
}

func (v *DirView) entryUpserted(l *listing, e *Entry) {
	v.mu.Lock()
	if v.listing != l {
		v.mu.Unlock()
		return
	}
	replaced := false
	for i, old := range v.entries {
		if old.URI == e.URI {
			v.entries[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		v.entries = append(v.entries, e)
	}
	v.rebuildLocked()
	note := v.entriesChangedNote()
	v.mu.Unlock()

	runNotes([]func(){note})
}

func (v *DirView) entryRemoved(l *listing, uri string) {
	v.mu.Lock()
	if v.listing != l {
		v.mu.Unlock()
		return
	}
	kept := v.entries[:0]
	removed := false
	for _, e := range v.entries {
		if e.URI == uri {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		v.mu.Unlock()
		return
	}
	v.entries = kept
	v.rebuildLocked()
	note := v.entriesChangedNote()
	v.mu.Unlock()

	runNotes([]func(){note})
}

// --- internal, all called with v.mu held ---

func (v *DirView) filterLocked() entryFilter {
	return entryFilter{
		term:            v.searchTerm,
		directoriesOnly: v.directoriesOnly,
		showHidden:      v.showHidden,
		types:           v.realFilter,
	}
}

// rebuildLocked recomputes the visible set from scratch, preserving the
// selection by URI.
func (v *DirView) rebuildLocked() {
	selURI := ""
	if v.selected >= 0 && v.selected < len(v.visible) {
		selURI = v.visible[v.selected].URI
	}

	f := v.filterLocked()
	v.visible = v.visible[:0]
	for _, e := range v.entries {
		if f.match(e) {
			v.visible = append(v.visible, e)
		}
	}
	sort.SliceStable(v.visible, func(i, j int) bool {
		return v.sort.compare(v.visible[i], v.visible[j]) < 0
	})

	v.reselectLocked(selURI)
}

func (v *DirView) reselectLocked(uri string) {
	v.selected = -1
	if uri == "" {
		return
	}
	for i, e := range v.visible {
		if e.URI == uri {
			v.selected = i
			return
		}
	}
}

// refilterLocked re-evaluates visibility. A MoreStrict change can only
// remove entries, so only the currently visible subset is re-checked (its
// order survives filtering); anything else rebuilds from the full set.
func (v *DirView) refilterLocked(change FilterChange) []func() {
	if change == FilterChangeMoreStrict {
		selURI := ""
		if v.selected >= 0 && v.selected < len(v.visible) {
			selURI = v.visible[v.selected].URI
		}
		f := v.filterLocked()
		kept := v.visible[:0]
		for _, e := range v.visible {
			if f.match(e) {
				kept = append(kept, e)
			}
		}
		v.visible = kept
		v.reselectLocked(selURI)
	} else {
		v.rebuildLocked()
	}
	return []func(){v.entriesChangedNote()}
}

// resortLocked reorders the visible set. An inversion reverses in place,
// which is cheaper than re-sorting and semantically equivalent. With
// directories grouped first the grouping is direction-independent, so each
// group inverts on its own.
func (v *DirView) resortLocked(change SortChange) []func() {
	selURI := ""
	if v.selected >= 0 && v.selected < len(v.visible) {
		selURI = v.visible[v.selected].URI
	}

	if change == SortChangeInverted {
		if v.sort.dirsFirst {
			split := len(v.visible)
			for i, e := range v.visible {
				if !e.Dir {
					split = i
					break
				}
			}
			reverseEntries(v.visible[:split])
			reverseEntries(v.visible[split:])
		} else {
			reverseEntries(v.visible)
		}
	} else {
		sort.SliceStable(v.visible, func(i, j int) bool {
			return v.sort.compare(v.visible[i], v.visible[j]) < 0
		})
	}

	v.reselectLocked(selURI)
	return []func(){v.entriesChangedNote()}
}

func (v *DirView) updateDisplayModeLocked() func() {
	mode := DisplayContent
	switch {
	case v.loading:
		mode = DisplayLoading
	case v.searchTerm != "":
		mode = DisplaySearch
	}
	if mode == v.displayMode {
		return nil
	}
	v.displayMode = mode
	if v.cb.DisplayModeChanged == nil {
		return nil
	}
	cb := v.cb.DisplayModeChanged
	return func() { cb(mode) }
}

// updateDirectorySelectionLocked implements the directory-mode rule: there
// is a selection whenever the current location is a valid directory.
func (v *DirView) updateDirectorySelectionLocked() func() {
	if !v.directoriesOnly {
		return nil
	}
	has := false
	if v.folder != "" {
		if info, err := os.Stat(v.folder); err == nil && info.IsDir() {
			has = true
		}
	}
	return v.setHasSelectionLocked(has)
}

func (v *DirView) setHasSelectionLocked(has bool) func() {
	if v.hasSelection == has {
		return nil
	}
	v.hasSelection = has
	if v.cb.HasSelectionChanged == nil {
		return nil
	}
	cb := v.cb.HasSelectionChanged
	return func() { cb(has) }
}

func (v *DirView) entriesChangedNote() func() {
	if v.cb.EntriesChanged == nil {
		return func() {}
	}
	return v.cb.EntriesChanged
}

func reverseEntries(s []*Entry) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func runNotes(notes []func()) {
	for _, n := range notes {
		if n != nil {
			n()
		}
	}
}
