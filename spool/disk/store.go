package disk

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/code-payments/moderation-gateway/spool"
)

// DiskStore stages uploads as uniquely named files under a directory.
type DiskStore struct {
	dir string
}

// NewDiskStore returns a store rooted at dir, creating it if needed. An
// empty dir selects the OS temp directory.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to create spool directory")
	}
	return &DiskStore{dir: dir}, nil
}

func (d *DiskStore) Dir() string {
	return d.dir
}

func (d *DiskStore) Put(ctx context.Context, ext string, data []byte) (spool.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := spool.GenerateName(ext)
	path := filepath.Join(d.dir, name)

	// O_EXCL guarantees we never write into another request's file
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create spool file")
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, errors.Wrap(err, "failed to write spool file")
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, errors.Wrap(err, "failed to close spool file")
	}

	return &artifact{name: name, path: path}, nil
}

type artifact struct {
	name string
	path string

	once sync.Once
	err  error
}

func (a *artifact) Name() string { return a.name }

func (a *artifact) Open() (io.ReadCloser, error) {
	f, err := os.Open(a.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, spool.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to open spool file")
	}
	return f, nil
}

func (a *artifact) Release() error {
	a.once.Do(func() {
		err := os.Remove(a.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.err = errors.Wrap(err, "failed to remove spool file")
		}
	})
	return a.err
}
