package volatile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"time"
)

// Fs holds small files served from memory, such as favicon.ico and robots.txt.
// It is filled before the listeners start and only read afterwards.
type Fs struct {
	root map[string]FsEntry
}

type FsEntry struct {
	Name string
	When time.Time
	Mime string
	Data []byte
}

func NewFs() Fs {
	fs := Fs{
		root: map[string]FsEntry{},
	}
	return fs
}

func (fs Fs) Len() int {
	return len(fs.root)
}

func (fs Fs) Put(target string, mime string, data []byte, when time.Time) error {
	if _, ok := fs.root[target]; ok {
		return fmt.Errorf(`path "%s" already exists`, target)
	}
	_, name := path.Split(target)
	fs.root[target] = FsEntry{
		Name: name,
		When: when.UTC(),
		Mime: mime,
		Data: data,
	}
	return nil
}

// FromFile loads name into target. The wand inspects the data and returns its
// mime type.
func (fs Fs) FromFile(target string, name string, wand func([]byte) (string, error)) error {
	info, err := os.Stat(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	mime, err := wand(data)
	if err != nil {
		return err
	}
	return fs.Put(target, mime, data, info.ModTime())
}

func (fs Fs) At(target string) (FsEntry, error) {
	if entry, ok := fs.root[target]; !ok {
		return FsEntry{}, fmt.Errorf(`path "%s" not found`, target)
	} else {
		return entry, nil
	}
}

func (entry FsEntry) ReadSeeker() io.ReadSeeker {
	return bytes.NewReader(entry.Data)
}
