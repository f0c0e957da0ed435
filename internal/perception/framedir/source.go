// Package framedir replays still images from a directory as camera frames. It stands in for a
// live camera in terminal runs and replays.
package framedir

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "image/png" // Register PNG decoder

	"golang.org/x/image/draw"

	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/danielpatrickdp/interview-engine/internal/perception"
)

// DefaultMaxWidth bounds the width of frames handed to the detector.
const DefaultMaxWidth = 640

var extensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// #region source
// Source cycles through the images in a directory in name order. Frames wider than MaxWidth
// are downscaled and re-encoded as JPEG.
type Source struct {
	MaxWidth int

	mu    sync.Mutex
	files []string
	next  int
}

// New lists the images in dir. A directory with no images is valid; every frame is then "no data".
func New(dir string) (*Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return &Source{MaxWidth: DefaultMaxWidth, files: files}, nil
}

// Len returns the number of frames in the rotation.
func (s *Source) Len() int {
	return len(s.files)
}

// NextFrame implements perception.FrameSource.
func (s *Source) NextFrame(ctx context.Context) (perception.Frame, error) {
	if err := ctx.Err(); err != nil {
		return perception.Frame{}, err
	}
	s.mu.Lock()
	if len(s.files) == 0 {
		s.mu.Unlock()
		return perception.Frame{}, perception.ErrNoFrame
	}
	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return perception.Frame{}, fmt.Errorf("read frame: %w", err)
	}
	return decode(data, s.MaxWidth)
}
// #endregion source

// #region decode
func decode(data []byte, maxWidth int) (perception.Frame, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return perception.Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return perception.Frame{Width: b.Dx(), Height: b.Dy(), Format: format, Data: data}, nil
	}

	height := max(b.Dy()*maxWidth/b.Dx(), 1)
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return perception.Frame{}, fmt.Errorf("encode frame: %w", err)
	}
	return perception.Frame{Width: maxWidth, Height: height, Format: "jpeg", Data: buf.Bytes()}, nil
}
// #endregion decode
