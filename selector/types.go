package selector

import "time"

// SortMode selects the primary criterion for ordering directory entries.
type SortMode int

const (
	// SortByName orders entries by display name.
	SortByName SortMode = iota
	// SortByModified orders entries by modification time.
	SortByModified
)

// SortChange tells the owning view how an order change relates to the
// previous one. Flipping only the reversed flag is an inversion, which the
// view can apply by reversing in place instead of re-sorting.
type SortChange int

const (
	SortChangeDifferent SortChange = iota
	SortChangeInverted
)

// FilterChange classifies a filter change relative to the previous filter.
// MoreStrict means the new visible set is a subset of the old one, LessStrict
// means a superset. Falling back to a full re-evaluation is always correct.
type FilterChange int

const (
	FilterChangeDifferent FilterChange = iota
	FilterChangeLessStrict
	FilterChangeMoreStrict
)

// DisplayMode is what a renderer should currently present for a DirView.
type DisplayMode int

const (
	// DisplayContent shows the folder content.
	DisplayContent DisplayMode = iota
	// DisplaySearch shows search results.
	DisplaySearch
	// DisplayLoading shows that the folder content is still loading.
	DisplayLoading
)

// ThumbnailMode controls how thumbnails are produced for a DirView.
type ThumbnailMode int

const (
	// ThumbnailsNever disables thumbnailing.
	ThumbnailsNever ThumbnailMode = iota
	// ThumbnailsLocal generates thumbnails in-process.
	ThumbnailsLocal
	// ThumbnailsService requests thumbnails from the session thumbnailer.
	ThumbnailsService
)

const (
	dirContentType = "inode/directory"

	defaultIconSize = 96

	// Quiescence window after the last observed entry before pending
	// thumbnail requests are flushed as one batch.
	thumbnailDebounceWindow = time.Second
)

func (m DisplayMode) String() string {
	switch m {
	case DisplaySearch:
		return "search"
	case DisplayLoading:
		return "loading"
	default:
		return "content"
	}
}

func (m SortMode) String() string {
	if m == SortByModified {
		return "modified"
	}
	return "name"
}

func (m ThumbnailMode) String() string {
	switch m {
	case ThumbnailsLocal:
		return "local"
	case ThumbnailsService:
		return "service"
	default:
		return "never"
	}
}
