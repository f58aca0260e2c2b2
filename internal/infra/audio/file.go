package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var clipMimes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".webm": "audio/webm",
}

// FileSource watches a directory for dropped audio clips. Useful for testing
// the voice path without a microphone: copy a clip in, it gets spoken to the
// fan.
type FileSource struct {
	dir       string
	processed map[string]bool
	mu        sync.Mutex
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{
		dir:       dir,
		processed: make(map[string]bool),
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating clip dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextClip(ctx context.Context) ([]byte, string, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-ticker.C:
			clip, mime, err := f.checkForNewClip()
			if err != nil {
				return nil, "", err
			}
			if clip != nil {
				return clip, mime, nil
			}
		}
	}
}

func (f *FileSource) checkForNewClip() ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, "", fmt.Errorf("reading clip dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		mime, ok := clipMimes[filepath.Ext(entry.Name())]
		if !ok {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("reading clip %s: %w", path, err)
		}

		f.processed[path] = true
		_ = os.Rename(path, path+".processed")

		return data, mime, nil
	}

	return nil, "", nil
}
