package model

import (
	"io"
	"strings"
	"time"
)

type FileType string

const (
	FileTypeImage FileType = `image`
	FileTypeVideo FileType = `video`
	FileTypeAudio FileType = `audio`
	FileTypeText  FileType = `text`
	FileTypePdf   FileType = `pdf`
	FileTypeOther FileType = `other`
)

// FsEntry describes one child of a listed directory. Path is slash separated and
// relative to the browsing root, without a leading slash.
type FsEntry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	IsDir    bool      `json:"is_dir"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Type     FileType  `json:"type"`
	MimeType string    `json:"mime_type,omitempty"`
}

type FsFile struct {
	FsEntry
	Content io.ReadSeekCloser
}

type SortKey string

const (
	SortByName     SortKey = `name`
	SortBySize     SortKey = `size`
	SortByModified SortKey = `modified`
)

func ParseSortKey(text string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(text))) {
	case SortBySize:
		return SortBySize
	case SortByModified, `date`, `mtime`:
		return SortByModified
	}
	return SortByName
}

type Order string

const (
	OrderAsc  Order = `asc`
	OrderDesc Order = `desc`
)

func ParseOrder(text string) Order {
	if Order(strings.ToLower(strings.TrimSpace(text))) == OrderDesc {
		return OrderDesc
	}
	return OrderAsc
}

// Listing selects and orders the children returned by FsDriver.List. The zero
// value returns every child sorted by name.
type Listing struct {
	Sort  SortKey
	Order Order
	Query string
	Hide  func(name string) bool
}

type FsDriver interface {
	List(string, Listing) ([]FsEntry, error)
	Open(string) (FsFile, error)
}

type FsWand interface {
	Zap(string) string
	Kind(string) FileType
}
