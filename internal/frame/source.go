package frame

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/cardscan/internal/utils"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// DirOptions configures a DirSource.
type DirOptions struct {
	FPS   float64 // Frames per second, <= 0 disables pacing
	Watch bool    // Keep waiting for new images in directories
}

// DirSource replays image files as a frame sequence. Directories are
// expanded to their images in name order. In watch mode, images created
// in those directories after the replay are emitted as they appear.
type DirSource struct {
	id       string
	files    []string
	next     int
	interval time.Duration
	lastEmit time.Time
	seq      uint64

	watcher *fsnotify.Watcher
	seen    map[string]bool
}

// NewDirSource opens paths, each an image file or a directory.
func NewDirSource(opts DirOptions, paths ...string) (*DirSource, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no input paths", ErrNoSource)
	}
	s := &DirSource{id: uuid.NewString(), seen: make(map[string]bool)}
	if opts.FPS > 0 {
		s.interval = time.Duration(float64(time.Second) / opts.FPS)
	}

	var dirs []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoSource, err)
		}
		if !info.IsDir() {
			if !utils.IsSupportedImage(p) {
				return nil, fmt.Errorf("%w: unsupported image %s", ErrNoSource, p)
			}
			s.files = append(s.files, p)
			continue
		}
		list, err := utils.ListImages(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoSource, err)
		}
		s.files = append(s.files, list...)
		dirs = append(dirs, p)
	}
	for _, f := range s.files {
		s.seen[filepath.Clean(f)] = true
	}

	if opts.Watch && len(dirs) > 0 {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("%w: watcher: %w", ErrNoSource, err)
		}
		for _, d := range dirs {
			if err := w.Add(d); err != nil {
				_ = w.Close()
				return nil, fmt.Errorf("%w: watch %s: %w", ErrNoSource, d, err)
			}
		}
		s.watcher = w
	} else if len(s.files) == 0 {
		return nil, fmt.Errorf("%w: no images in %v", ErrNoSource, paths)
	}

	slog.Debug("Opened frame source", "source", s.id, "files", len(s.files), "watch", s.watcher != nil)
	return s, nil
}

// ID identifies the source in logs.
func (s *DirSource) ID() string { return s.id }

// Next returns the next frame, io.EOF once all files were emitted and the
// source is not watching.
func (s *DirSource) Next(ctx context.Context) (*Frame, error) {
	for {
		path, err := s.nextPath(ctx)
		if err != nil {
			return nil, err
		}
		img, _, err := utils.LoadImage(path)
		if err != nil {
			slog.Warn("Skipping unreadable frame", "source", s.id, "path", path, "error", err)
			continue
		}
		if err := s.pace(ctx); err != nil {
			return nil, err
		}
		f, err := FromImage(img)
		if err != nil {
			return nil, err
		}
		s.seq++
		f.Seq = s.seq
		return f, nil
	}
}

func (s *DirSource) nextPath(ctx context.Context) (string, error) {
	if s.next < len(s.files) {
		s.next++
		return s.files[s.next-1], nil
	}
	if s.watcher == nil {
		return "", io.EOF
	}
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return "", io.EOF
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Clean(ev.Name)
			if s.seen[name] || !utils.IsSupportedImage(name) {
				continue
			}
			if _, _, err := utils.LoadImage(name); err != nil {
				// Probably still being written; a later write event retries.
				continue
			}
			s.seen[name] = true
			return name, nil
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return "", io.EOF
			}
			slog.Warn("Frame watcher error", "source", s.id, "error", err)
		}
	}
}

func (s *DirSource) pace(ctx context.Context) error {
	if s.interval > 0 && !s.lastEmit.IsZero() {
		if wait := s.interval - time.Since(s.lastEmit); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	s.lastEmit = time.Now()
	return nil
}

// Close stops watching.
func (s *DirSource) Close() error {
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}
