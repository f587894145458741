package level

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/hoshinonyaruko/snake-in-grid/logger"
)

// Watch re-parses the level file whenever it is written or replaced and
// hands the result to onChange. The next round reads the file again anyway,
// so this only reports edits early. It blocks until ctx is done.
func Watch(ctx context.Context, path string, cellSize int, onChange func(*Level, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// 监听目录而不是文件，编辑器保存时常常是 rename
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	name := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			lvl, err := LoadFile(path, cellSize)
			onChange(lvl, err)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.WithError(err).Warn("level watcher error")
		}
	}
}
