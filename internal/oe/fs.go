package oe

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"dirindex/internal/model"
)

// FsDriver lists and opens files below a browsing root on the local disk. It
// holds no mutable state and is safe for concurrent use.
type FsDriver struct {
	base string
	wand model.FsWand
	hide func(string) bool
}

var _ model.FsDriver = (*FsDriver)(nil)

func NewFsDriver(base string, wand model.FsWand) (FsDriver, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return FsDriver{}, errors.Wrapf(err, `root %s`, base)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return FsDriver{}, errors.Wrapf(classify(err), `root %s`, base)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return FsDriver{}, errors.Wrapf(classify(err), `root %s`, base)
	}
	if !info.IsDir() {
		return FsDriver{}, errors.Wrapf(model.ErrFsNotADirectory, `root %s`, base)
	}
	fs := FsDriver{
		base: resolved,
		wand: wand,
	}
	return fs, nil
}

// WithHide refuses every path whose symlink-resolved location has a segment
// hide reports true for, and drops links to such places from listings.
func (fs FsDriver) WithHide(hide func(string) bool) FsDriver {
	fs.hide = hide
	return fs
}

func (fs FsDriver) Base() string {
	return fs.base
}

func (fs FsDriver) List(rel string, listing model.Listing) ([]model.FsEntry, error) {
	target, clean, err := fs.resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, errors.Wrapf(classify(err), `list /%s`, clean)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(model.ErrFsNotADirectory, `list /%s`, clean)
	}
	list, err := os.ReadDir(target)
	if err != nil {
		return nil, errors.Wrapf(classify(err), `list /%s`, clean)
	}
	query := strings.ToLower(strings.TrimSpace(listing.Query))
	nodes := make([]model.FsEntry, 0, len(list))
	for _, item := range list {
		name := item.Name()
		if listing.Hide != nil && listing.Hide(name) {
			continue
		}
		if query != `` && !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		info, err := item.Info()
		if err != nil {
			// removed after ReadDir
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, errors.Wrapf(classify(err), `stat /%s`, join(clean, name))
		}
		if info.Mode()&os.ModeSymlink != 0 {
			link := filepath.Join(target, name)
			if resolved, err := filepath.EvalSymlinks(link); err == nil && fs.hidden(resolved) {
				continue
			}
			if followed, err := os.Stat(link); err == nil {
				info = followed
			}
		}
		nodes = append(nodes, fs.entry(join(clean, name), name, info))
	}
	Sort(nodes, listing.Sort, listing.Order)
	return nodes, nil
}

func (fs FsDriver) Open(rel string) (model.FsFile, error) {
	target, clean, err := fs.resolve(rel)
	if err != nil {
		return model.FsFile{}, err
	}
	info, err := os.Stat(target)
	if err != nil {
		return model.FsFile{}, errors.Wrapf(classify(err), `open /%s`, clean)
	}
	if info.IsDir() {
		return model.FsFile{}, errors.Wrapf(model.ErrFsNotAFile, `open /%s`, clean)
	}
	file, err := os.Open(target)
	if err != nil {
		return model.FsFile{}, errors.Wrapf(classify(err), `open /%s`, clean)
	}
	return model.FsFile{
		FsEntry: fs.entry(clean, path.Base(clean), info),
		Content: file,
	}, nil
}

// resolve maps rel onto the disk. It returns the on-disk target with symlinks
// evaluated and the cleaned root-relative slash path ("" for the root).
func (fs FsDriver) resolve(rel string) (string, string, error) {
	if strings.ContainsRune(rel, 0) {
		return ``, ``, errors.Wrapf(model.ErrFsAccessDenied, `resolve %q`, rel)
	}
	rel = strings.TrimLeft(rel, `/`)
	target := filepath.Join(fs.base, filepath.FromSlash(rel))
	clean, err := filepath.Rel(fs.base, target)
	if err != nil || escapes(clean) {
		return ``, ``, errors.Wrapf(model.ErrFsAccessDenied, `resolve %q`, rel)
	}
	clean = filepath.ToSlash(clean)
	if clean == `.` {
		clean = ``
	}
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return ``, ``, errors.Wrapf(classify(err), `resolve /%s`, clean)
	}
	if inside, err := filepath.Rel(fs.base, resolved); err != nil || escapes(inside) {
		return ``, ``, errors.Wrapf(model.ErrFsAccessDenied, `resolve /%s`, clean)
	}
	if fs.hidden(resolved) {
		return ``, ``, errors.Wrapf(model.ErrFsAccessDenied, `resolve /%s`, clean)
	}
	return resolved, clean, nil
}

// hidden checks the segments of an on-disk path below the root.
func (fs FsDriver) hidden(resolved string) bool {
	if fs.hide == nil {
		return false
	}
	inside, err := filepath.Rel(fs.base, resolved)
	if err != nil || escapes(inside) {
		return false
	}
	for _, segment := range strings.Split(filepath.ToSlash(inside), `/`) {
		if segment != `.` && fs.hide(segment) {
			return true
		}
	}
	return false
}

func (fs FsDriver) entry(rel string, name string, info os.FileInfo) model.FsEntry {
	if info.IsDir() {
		return model.FsEntry{
			Name:     name,
			Path:     rel,
			IsDir:    true,
			Modified: info.ModTime(),
			Type:     model.FileTypeOther,
		}
	}
	return model.FsEntry{
		Name:     name,
		Path:     rel,
		Size:     info.Size(),
		Modified: info.ModTime(),
		Type:     fs.wand.Kind(name),
		MimeType: fs.wand.Zap(name),
	}
}

// Sort orders entries in place. Directories always come first; within each group
// the key decides, and ties fall back to the name in ascending order.
func Sort(entries []model.FsEntry, key model.SortKey, order model.Order) {
	sort.SliceStable(entries, func(one int, two int) bool {
		a, b := entries[one], entries[two]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		c := 0
		switch key {
		case model.SortBySize:
			c = compareInt(a.Size, b.Size)
		case model.SortByModified:
			c = a.Modified.Compare(b.Modified)
		default:
			c = compareNames(a.Name, b.Name)
		}
		if order == model.OrderDesc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return compareNames(a.Name, b.Name) < 0
	})
}

func compareNames(a string, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func compareInt(a int64, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func escapes(rel string) bool {
	return rel == `..` || strings.HasPrefix(rel, `..`+string(filepath.Separator))
}

func join(dir string, name string) string {
	if dir == `` {
		return name
	}
	return dir + `/` + name
}

func classify(err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return errors.Wrap(model.ErrFsNotFound, err.Error())
	case errors.Is(err, os.ErrPermission):
		return errors.Wrap(model.ErrFsAccessDenied, err.Error())
	}
	return err
}
