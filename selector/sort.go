package selector

import "strings"

// sorter produces a deterministic total order over entries. Directories
// precede files when dirsFirst is set, regardless of the active criterion or
// the reversed flag. Equal comparisons yield equal order; the stable sort in
// the view decides ties.
type sorter struct {
	mode      SortMode
	reversed  bool
	dirsFirst bool
}

func (s sorter) compare(a, b *Entry) int {
	if s.dirsFirst && a.Dir != b.Dir {
		if a.Dir {
			return -1
		}
		return 1
	}

	var c int
	switch s.mode {
	case SortByModified:
		c = a.ModTime.Compare(b.ModTime)
	default:
		c = strings.Compare(a.Name, b.Name)
	}
	if s.reversed {
		c = -c
	}
	return c
}
