package selector

import (
	"os"
	"path/filepath"
	"time"

	"github.com/djherbis/times"
	"github.com/dustin/go-humanize"
)

// FilePropsType distinguishes what the properties window shows.
type FilePropsType int

const (
	PropsFile FilePropsType = iota
	PropsDirectory
)

// FileProps holds everything the file-properties window displays for one
// path. Timestamps that the platform cannot provide are flagged off rather
// than zeroed into the UI.
type FileProps struct {
	Path string
	URI  string
	Name string
	Type FilePropsType

	ContentType string
	Size        int64
	SizeLabel   string

	Modified    time.Time
	Accessed    time.Time
	Created     time.Time
	HasCreated  bool
	HasAccessed bool

	// ParentFolder is empty at the filesystem root.
	ParentFolder string

	// ThumbnailPath points at an already cached thumbnail, if any.
	ThumbnailPath string
}

// QueryFileProps stats path without following symlinks and assembles the
// properties. Failure is reported to the caller; nothing here is fatal to
// browsing.
func QueryFileProps(path string) (*FileProps, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	info, err := os.Lstat(abs)
	if err != nil {
		return nil, err
	}

	p := &FileProps{
		Path:        abs,
		URI:         PathToURI(abs),
		Name:        info.Name(),
		ContentType: contentTypeFor(info.Name(), info.IsDir()),
		Size:        info.Size(),
		SizeLabel:   humanize.Bytes(uint64(info.Size())),
		Modified:    info.ModTime(),
	}
	if info.IsDir() {
		p.Type = PropsDirectory
	}

	ts := times.Get(info)
	p.Accessed = ts.AccessTime()
	p.HasAccessed = true
	if ts.HasBirthTime() {
		p.Created = ts.BirthTime()
		p.HasCreated = true
	}

	if parent := filepath.Dir(abs); parent != abs {
		p.ParentFolder = parent
	}

	if !info.IsDir() {
		p.ThumbnailPath = cachedThumbnail(p.URI)
	}

	return p, nil
}

// TimestampISO formats a properties row timestamp.
func TimestampISO(t time.Time) string {
	return t.Format(time.RFC3339)
}
