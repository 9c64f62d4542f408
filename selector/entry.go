package selector

import (
	"crypto/md5"
	"encoding/hex"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one file-system object surfaced by a directory listing. Entries
// are identified by their URI; a new listing replaces them wholesale.
type Entry struct {
	URI         string
	Name        string
	ContentType string
	Dir         bool
	ModTime     time.Time
	Size        int64

	// ThumbnailPath is set once a thumbnailer produced (or a previous run
	// cached) a thumbnail for this entry.
	ThumbnailPath  string
	ThumbnailValid bool
}

func newEntry(dir string, info os.FileInfo) *Entry {
	name := info.Name()
	e := &Entry{
		URI:         PathToURI(filepath.Join(dir, name)),
		Name:        name,
		ContentType: contentTypeFor(name, info.IsDir()),
		Dir:         info.IsDir(),
		ModTime:     info.ModTime(),
		Size:        info.Size(),
	}
	if !e.Dir {
		if path := cachedThumbnail(e.URI); path != "" {
			e.ThumbnailPath = path
			e.ThumbnailValid = true
		}
	}
	return e
}

func (e *Entry) hidden() bool {
	return strings.HasPrefix(e.Name, ".")
}

func contentTypeFor(name string, dir bool) string {
	if dir {
		return dirContentType
	}
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ct == "" {
		return "application/octet-stream"
	}
	// TypeByExtension may append parameters ("text/plain; charset=utf-8")
	// which no MIME filter expects.
	if base, _, found := strings.Cut(ct, ";"); found {
		return strings.TrimSpace(base)
	}
	return ct
}

// PathToURI turns a local path into a file:// URI.
func PathToURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

// URIToPath turns a file:// URI back into a local path. Plain paths are
// passed through so callers can hand either form to the command surface.
func URIToPath(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return "", &url.Error{Op: "parse", URL: uri, Err: errNotLocal}
	}
	// file://host/path names a path on host; only this machine qualifies.
	if u.Host != "" && u.Host != "localhost" {
		return "", &url.Error{Op: "parse", URL: uri, Err: errNotLocal}
	}
	return filepath.FromSlash(u.Path), nil
}

var errNotLocal = errNotLocalType{}

type errNotLocalType struct{}

func (errNotLocalType) Error() string { return "not a local file URI" }

// cachedThumbnail returns an existing freedesktop thumbnail for the URI, or
// "" when none is cached, largest size first.
func cachedThumbnail(uri string) string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	sum := md5.Sum([]byte(uri))
	name := hex.EncodeToString(sum[:]) + ".png"
	for _, size := range []string{"xx-large", "x-large", "large", "normal"} {
		path := filepath.Join(cacheDir, "thumbnails", size, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
