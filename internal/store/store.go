// Package store loads and saves structured documents on a billy filesystem.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/sirupsen/logrus"
)

// Store reads and writes documents through FS. Missing or unreadable
// inputs are reported on Log and replaced by an empty document.
type Store struct {
	FS  billy.Filesystem
	Log logrus.FieldLogger
}

func New(fs billy.Filesystem, log logrus.FieldLogger) *Store {
	return &Store{FS: fs, Log: log}
}

// Load decodes the document at path. A file that does not exist or cannot
// be read yields an empty object and a warning; malformed content is an error.
func (s *Store) Load(path string) (any, error) {
	codec, err := CodecFor(path)
	if err != nil {
		return nil, err
	}

	data, err := util.ReadFile(s.FS, path)
	if err != nil {
		shown := AbsPath(path)
		if errors.Is(err, os.ErrNotExist) {
			s.Log.WithField("path", shown).Warnf("file %s not found", shown)
		} else {
			s.Log.WithField("path", shown).WithError(err).Warnf("file %s unreadable", shown)
		}
		return map[string]any{}, nil
	}

	doc, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	return doc, nil
}

// Save encodes doc and replaces path atomically: content goes to a temp file
// in the destination directory which is then renamed over the target.
// A failed save is logged and leaves the target untouched.
func (s *Store) Save(path string, doc any) error {
	if err := s.save(path, doc); err != nil {
		s.Log.WithField("path", path).WithError(err).Errorf("file %s not written", path)
		return err
	}
	return nil
}

func (s *Store) save(path string, doc any) error {
	codec, err := CodecFor(path)
	if err != nil {
		return err
	}
	data, err := codec.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmp, err := s.FS.TempFile(filepath.Dir(path), ".relabel-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.FS.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.FS.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}

	// Keep the mode of an existing target.
	if ch, ok := s.FS.(billy.Change); ok {
		if info, err := s.FS.Stat(path); err == nil {
			_ = ch.Chmod(tmpName, info.Mode())
		} else {
			_ = ch.Chmod(tmpName, 0o644)
		}
	}

	if err := s.FS.Rename(tmpName, path); err != nil {
		_ = s.FS.Remove(tmpName)
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}

// AbsPath returns path made absolute, or path itself when the working
// directory is unknown.
func AbsPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
