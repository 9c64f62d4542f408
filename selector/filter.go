package selector

import "strings"

// TypeFilter restricts entries to a set of MIME types. A trailing "/*"
// matches the whole media type, e.g. "image/*".
type TypeFilter struct {
	Name      string
	MimeTypes []string
}

func (t *TypeFilter) matches(contentType string) bool {
	for _, mt := range t.MimeTypes {
		if mt == contentType {
			return true
		}
		if prefix, ok := strings.CutSuffix(mt, "/*"); ok &&
			strings.HasPrefix(contentType, prefix+"/") {
			return true
		}
	}
	return false
}

// withDirectories copies the filter and adds inode/directory so users can
// keep browsing through folders under a restrictive type filter. The
// caller's filter is left untouched since it may be read back.
func (t *TypeFilter) withDirectories() *TypeFilter {
	real := &TypeFilter{
		Name:      t.Name,
		MimeTypes: make([]string, 0, len(t.MimeTypes)+1),
	}
	real.MimeTypes = append(real.MimeTypes, t.MimeTypes...)
	real.MimeTypes = append(real.MimeTypes, dirContentType)
	return real
}

// entryFilter decides per-entry visibility. The search term is stored
// normalized (trimmed, lowercased); an empty term matches everything.
type entryFilter struct {
	term            string
	directoriesOnly bool
	showHidden      bool
	types           *TypeFilter // includes inode/directory
}

func (f entryFilter) match(e *Entry) bool {
	if f.term != "" &&
		!strings.HasPrefix(strings.ToLower(strings.TrimSpace(e.Name)), f.term) {
		return false
	}

	if f.directoriesOnly && !e.Dir {
		return false
	}

	if f.types != nil && !f.types.matches(e.ContentType) {
		return false
	}

	if f.showHidden {
		return true
	}
	return !e.hidden()
}

// normalizeTerm prepares a search term at the point it is set.
func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// classifyTermChange reports how replacing oldTerm with newTerm affects the
// visible set. Both terms must already be normalized. When the new term
// extends the old one matches can only disappear (MoreStrict); when it is a
// prefix of the old one matches can only appear (LessStrict).
func classifyTermChange(oldTerm, newTerm string) FilterChange {
	switch {
	case strings.HasPrefix(oldTerm, newTerm):
		return FilterChangeLessStrict
	case strings.HasPrefix(newTerm, oldTerm):
		return FilterChangeMoreStrict
	default:
		return FilterChangeDifferent
	}
}
