// Package memimg keeps the sprite images in memory, keyed by entity tag.
package memimg

import (
	"context"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"github.com/hoshinonyaruko/snake-in-grid/logger"
	"github.com/hoshinonyaruko/snake-in-grid/structs"
)

// FileNames maps each tag to the sprite file it is drawn with.
var FileNames = map[structs.Tag]string{
	structs.Wall:        "wall.png",
	structs.Item:        "apple.png",
	structs.TailSegment: "smile_icon.png",
	structs.Head:        "smile_icon.png",
}

// Fallback 贴图缺失时用纯色块代替
var Fallback = map[structs.Tag]color.RGBA{
	structs.Wall:        {R: 110, G: 110, B: 120, A: 255},
	structs.Item:        {R: 220, G: 40, B: 40, A: 255},
	structs.TailSegment: {R: 60, G: 170, B: 60, A: 255},
	structs.Head:        {R: 240, G: 200, B: 40, A: 255},
}

// Sprites is a tag to image table, scaled to one cell.
type Sprites struct {
	dir      string
	cellSize int

	mu     sync.RWMutex
	images map[structs.Tag]image.Image
}

// NewSprites returns an empty table for sprites under dir.
func NewSprites(dir string, cellSize int) *Sprites {
	return &Sprites{
		dir:      dir,
		cellSize: cellSize,
		images:   make(map[structs.Tag]image.Image),
	}
}

// Load reads every known sprite file. Missing files are skipped and fall back to colour.
func (s *Sprites) Load() error {
	for tag, name := range FileNames {
		img, err := s.loadScaled(filepath.Join(s.dir, name))
		if os.IsNotExist(err) {
			logger.Log.WithField("sprite", name).Debug("sprite missing, using fallback colour")
			continue
		}
		if err != nil {
			return err
		}
		s.Set(tag, img)
	}
	return nil
}

func (s *Sprites) loadScaled(path string) (image.Image, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return imaging.Resize(img, s.cellSize, s.cellSize, imaging.Lanczos), nil
}

// Set stores img for tag as is.
func (s *Sprites) Set(tag structs.Tag, img image.Image) {
	s.mu.Lock()
	s.images[tag] = img
	s.mu.Unlock()
}

// Get returns the sprite for tag.
func (s *Sprites) Get(tag structs.Tag) (image.Image, bool) {
	s.mu.RLock()
	img, ok := s.images[tag]
	s.mu.RUnlock()
	return img, ok
}

// Color returns the fallback colour for tag.
func (s *Sprites) Color(tag structs.Tag) color.RGBA {
	if c, ok := Fallback[tag]; ok {
		return c
	}
	return color.RGBA{A: 255}
}

// LoadImage decodes a png or jpeg file.
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Watch 检测贴图目录并热更新到内存，直到 ctx 结束
func (s *Sprites) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			s.reload(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.WithError(err).Warn("sprite watcher error")
		}
	}
}

// reload refreshes every tag drawn from the changed file.
func (s *Sprites) reload(path string) {
	base := filepath.Base(path)
	for tag, name := range FileNames {
		if name != base {
			continue
		}
		img, err := s.loadScaled(path)
		if err != nil {
			logger.Log.WithError(err).WithField("sprite", base).Warn("sprite reload failed")
			return
		}
		s.Set(tag, img)
		logger.Log.WithField("sprite", base).Debug("sprite reloaded")
	}
}
