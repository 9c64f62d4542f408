package selector

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/draw"
)

// Disk cache limits. Cleanup trims to 80% of these.
var (
	MaxCacheSize  int64 = 500 * 1024 * 1024 // 500MB
	MaxCacheFiles       = 10000
)

const (
	thumbnailTargetSize = 128
	localQueueLimit     = 100
	localWorkers        = 4
)

type localRequest struct {
	ctx  context.Context
	uri  string
	path string
}

// LocalThumbnailer generates thumbnails in-process, for setups without a
// session thumbnailing service. It implements the same Thumbnailer contract
// as the D-Bus client: requests are queued, results flow back through the
// done callback as a URI → path mapping pointing into a persistent disk
// cache. Workers take the newest request first so whatever the user looks at
// right now wins.
type LocalThumbnailer struct {
	done       func(map[string]string)
	ffmpegPath string
	cacheDir   string

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []localRequest
	closed bool
}

// NewLocalThumbnailer sets up the disk cache and starts the worker pool.
// Video thumbnails need ffmpeg; without it only images are handled.
func NewLocalThumbnailer(done func(map[string]string)) (*LocalThumbnailer, error) {
	userCache, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	cacheDir := filepath.Join(userCache, "fileselect", "thumbnails")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, err
	}

	t := &LocalThumbnailer{
		done:     done,
		cacheDir: cacheDir,
	}
	t.cond = sync.NewCond(&t.mu)

	if path, err := exec.LookPath("ffmpeg"); err == nil {
		t.ffmpegPath = path
	}

	go t.cleanupCache()
	for i := 0; i < localWorkers; i++ {
		go t.worker()
	}
	return t, nil
}

// SetFFmpegPath overrides the ffmpeg binary used for video frames.
func (t *LocalThumbnailer) SetFFmpegPath(path string) {
	t.mu.Lock()
	t.ffmpegPath = path
	t.mu.Unlock()
}

// ThumbnailFiles resolves cache hits immediately and queues the rest for the
// workers. Unsupported formats are skipped; that is the silent non-blocking
// degradation the callers expect.
func (t *LocalThumbnailer) ThumbnailFiles(ctx context.Context, uris []string) error {
	hits := make(map[string]string)

	for _, uri := range uris {
		path, err := URIToPath(uri)
		if err != nil {
			continue
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !isSupportedImage(ext) && !(isSupportedVideo(ext) && t.ffmpegPath != "") {
			continue
		}

		if key, err := t.cacheKey(path); err == nil {
			cachePath := filepath.Join(t.cacheDir, key+".jpg")
			if _, err := os.Stat(cachePath); err == nil {
				hits[uri] = cachePath
				continue
			}
		}

		t.enqueue(localRequest{ctx: ctx, uri: uri, path: path})
	}

	if len(hits) > 0 && t.done != nil {
		t.done(hits)
	}
	return nil
}

func (t *LocalThumbnailer) enqueue(req localRequest) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	// Bounded queue: drop the oldest request to keep the pending set small
	// and relevant while the user scrolls.
	if len(t.queue) >= localQueueLimit {
		t.queue = t.queue[1:]
	}
	t.queue = append(t.queue, req)
	t.cond.Signal()
	t.mu.Unlock()
}

func (t *LocalThumbnailer) worker() {
	for {
		t.mu.Lock()
		for len(t.queue) == 0 && !t.closed {
			t.cond.Wait()
		}
		if t.closed {
			t.mu.Unlock()
			return
		}
		last := len(t.queue) - 1
		req := t.queue[last]
		t.queue = t.queue[:last]
		ffmpeg := t.ffmpegPath
		t.mu.Unlock()

		// Superseded requests (directory change, teardown) must not
		// produce results.
		if req.ctx != nil && req.ctx.Err() != nil {
			continue
		}

		cachePath, err := t.generate(req.path, ffmpeg)
		if err != nil {
			logger.Debug().Err(err).Str("path", req.path).Msg("thumbnail generation failed")
			continue
		}
		if req.ctx != nil && req.ctx.Err() != nil {
			continue
		}
		if t.done != nil {
			t.done(map[string]string{req.uri: cachePath})
		}
	}
}

func (t *LocalThumbnailer) generate(path, ffmpeg string) (string, error) {
	var img image.Image
	var err error

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case isSupportedImage(ext):
		img, err = loadImage(path)
	case isSupportedVideo(ext):
		img, err = videoFrame(ffmpeg, path)
	default:
		return "", fmt.Errorf("unsupported format %q", ext)
	}
	if err != nil {
		return "", err
	}

	dst, err := letterbox(img, thumbnailTargetSize)
	if err != nil {
		return "", err
	}

	key, err := t.cacheKey(path)
	if err != nil {
		return "", err
	}
	cachePath := filepath.Join(t.cacheDir, key+".jpg")
	f, err := os.Create(cachePath)
	if err != nil {
		return "", err
	}
	if err := jpeg.Encode(f, dst, &jpeg.Options{Quality: 85}); err != nil {
		f.Close()
		return "", err
	}
	return cachePath, f.Close()
}

// letterbox scales the image into a black size×size square, preserving the
// aspect ratio.
func letterbox(img image.Image, size int) (*image.RGBA, error) {
	srcBounds := img.Bounds()
	srcW, srcH := srcBounds.Dx(), srcBounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, fmt.Errorf("empty source image")
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{image.Black}, image.Point{}, draw.Src)

	var scaledW, scaledH int
	ratio := float64(srcW) / float64(srcH)
	if ratio > 1 {
		scaledW = size
		scaledH = int(float64(size) / ratio)
	} else {
		scaledH = size
		scaledW = int(float64(size) * ratio)
	}

	xBase := (size - scaledW) / 2
	yBase := (size - scaledH) / 2
	target := image.Rect(xBase, yBase, xBase+scaledW, yBase+scaledH)
	draw.ApproxBiLinear.Scale(dst, target, img, srcBounds, draw.Over, nil)
	return dst, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// videoFrame grabs one frame from the middle of the video. Input seeking
// (-ss before -i) is less accurate but much faster, which is fine for
// thumbnails.
func videoFrame(ffmpeg, path string) (image.Image, error) {
	if ffmpeg == "" {
		return nil, fmt.Errorf("ffmpeg not available")
	}

	seek := videoDuration(ffmpeg, path) / 2
	seekStr := fmt.Sprintf("%02d:%02d:%02d.%03d",
		int(seek.Hours()),
		int(seek.Minutes())%60,
		int(seek.Seconds())%60,
		seek.Milliseconds()%1000)

	cmd := exec.Command(ffmpeg, "-ss", seekStr, "-i", path,
		"-vframes", "1", "-f", "image2", "-strict", "unofficial", "-")
	applyHiddenWindow(cmd)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	if err := cmd.Run(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(&buf)
	return img, err
}

var durationRe = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.(\d{2})`)

func videoDuration(ffmpeg, path string) time.Duration {
	// ffmpeg prints stream info to stderr and fails for lack of an output
	// file; the info is there anyway.
	cmd := exec.Command(ffmpeg, "-i", path)
	applyHiddenWindow(cmd)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()

	m := durationRe.FindStringSubmatch(stderr.String())
	if len(m) < 5 {
		return 2 * time.Second
	}

	var hours, minutes, seconds, centis int
	fmt.Sscanf(m[1], "%d", &hours)
	fmt.Sscanf(m[2], "%d", &minutes)
	fmt.Sscanf(m[3], "%d", &seconds)
	fmt.Sscanf(m[4], "%d", &centis)

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(centis*10)*time.Millisecond
}

func isSupportedImage(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}

func isSupportedVideo(ext string) bool {
	switch ext {
	case ".mp4", ".mkv", ".avi", ".webm", ".mov":
		return true
	}
	return false
}

// cacheKey derives a stable cache name from the path, its stat identity and
// the leading content, so edits invalidate stale thumbnails.
func (t *LocalThumbnailer) cacheKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(abs))
	fmt.Fprintf(h, "%d/%d", info.ModTime().UnixNano(), info.Size())

	if f, err := os.Open(abs); err == nil {
		buf := make([]byte, 32*1024)
		n, _ := f.Read(buf)
		h.Write(buf[:n])
		f.Close()
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// cleanupCache evicts the oldest cached thumbnails once the cache outgrows
// its limits.
func (t *LocalThumbnailer) cleanupCache() {
	files, err := os.ReadDir(t.cacheDir)
	if err != nil {
		return
	}

	type cached struct {
		name string
		size int64
		time time.Time
	}

	var entries []cached
	var totalSize int64
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".jpg" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		entries = append(entries, cached{f.Name(), info.Size(), info.ModTime()})
		totalSize += info.Size()
	}

	if totalSize <= MaxCacheSize && len(entries) <= MaxCacheFiles {
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].time.Before(entries[j].time)
	})

	sizeTarget := int64(float64(MaxCacheSize) * 0.8)
	countTarget := int(float64(MaxCacheFiles) * 0.8)
	for len(entries) > 0 {
		if totalSize <= sizeTarget && len(entries) <= countTarget {
			break
		}
		_ = os.Remove(filepath.Join(t.cacheDir, entries[0].name))
		totalSize -= entries[0].size
		entries = entries[1:]
	}
}

// Close stops the workers. Queued requests are dropped.
func (t *LocalThumbnailer) Close() error {
	t.mu.Lock()
	t.closed = true
	t.queue = nil
	t.cond.Broadcast()
	t.mu.Unlock()
	return nil
}
