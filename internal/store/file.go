package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// File stores the record as a JSON document on disk.
type File struct {
	path   string
	logger *slog.Logger
}

func NewFile(path string, logger *slog.Logger) *File {
	return &File{path: path, logger: logger}
}

func (f *File) Path() string { return f.path }

func (f *File) Save(_ context.Context, transcript string) error {
	data, err := encode(transcript)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".scriber-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp record: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace record: %w", err)
	}
	return nil
}

func (f *File) Load(_ context.Context) (string, bool) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logWarn(f.logger, "read stored transcript", "path", f.path, "error", err.Error())
		}
		return "", false
	}

	transcript, ok, err := decode(raw)
	if err != nil {
		logWarn(f.logger, "ignore malformed stored transcript", "path", f.path, "error", err.Error())
		return "", false
	}
	return transcript, ok
}

func (f *File) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove record: %w", err)
	}
	return nil
}

// Check verifies the parent directory can be created and written.
func (f *File) Check(_ context.Context) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	probe, err := os.CreateTemp(dir, ".scriber-check-*")
	if err != nil {
		return fmt.Errorf("store dir not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}
