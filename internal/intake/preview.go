package intake

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrPreviewReleased is returned when reading from a released preview.
var ErrPreviewReleased = errors.New("preview released")

// Preview is a locally resolvable handle on a selected file's bytes. It holds an
// open descriptor until Release is called.
type Preview struct {
	id      string
	name    string
	size    int64
	modTime time.Time

	mu   sync.Mutex
	file *os.File
}

// OpenPreview allocates a preview handle for path.
func OpenPreview(path string) (*Preview, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open preview %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat preview %q: %w", path, err)
	}

	return &Preview{
		id:      uuid.NewString(),
		name:    info.Name(),
		size:    info.Size(),
		modTime: info.ModTime(),
		file:    f,
	}, nil
}

func (p *Preview) ID() string { return p.id }

// URL is the handle's local reference, stable for its lifetime.
func (p *Preview) URL() string { return "preview://" + p.id }

func (p *Preview) Name() string { return p.name }

func (p *Preview) ModTime() time.Time { return p.modTime }

// Section returns an independent reader over the previewed bytes.
func (p *Preview) Section() (*io.SectionReader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return nil, ErrPreviewReleased
	}
	return io.NewSectionReader(p.file, 0, p.size), nil
}

// Released reports whether Release has run.
func (p *Preview) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.file == nil
}

// Release closes the underlying descriptor. Safe to call more than once.
func (p *Preview) Release() error {
	p.mu.Lock()
	f := p.file
	p.file = nil
	p.mu.Unlock()

	if f == nil {
		return nil
	}
	return f.Close()
}
