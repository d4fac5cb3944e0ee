package wand

import (
	"path"
	"strings"

	"dirindex/internal/model"
)

const DefaultMimeType = `application/octet-stream`

var mimeTypes = map[string]string{
	`7z`:    `application/x-7z-compressed`,
	`aac`:   `audio/aac`,
	`avi`:   `video/x-msvideo`,
	`avif`:  `image/avif`,
	`bin`:   `application/octet-stream`,
	`bmp`:   `image/bmp`,
	`bz`:    `application/x-bzip`,
	`bz2`:   `application/x-bzip2`,
	`css`:   `text/css`,
	`csv`:   `text/csv`,
	`doc`:   `application/msword`,
	`flac`:  `audio/flac`,
	`gif`:   `image/gif`,
	`go`:    `text/plain`,
	`gz`:    `application/gzip`,
	`htm`:   `text/html`,
	`html`:  `text/html`,
	`ico`:   `image/x-icon`,
	`ini`:   `text/plain`,
	`jpeg`:  `image/jpeg`,
	`jpg`:   `image/jpeg`,
	`js`:    `text/javascript`,
	`json`:  `application/json`,
	`log`:   `text/plain`,
	`m4a`:   `audio/mp4`,
	`m4v`:   `video/mp4`,
	`md`:    `text/markdown`,
	`mkv`:   `video/x-matroska`,
	`mov`:   `video/quicktime`,
	`mp3`:   `audio/mpeg`,
	`mp4`:   `video/mp4`,
	`mpeg`:  `video/mpeg`,
	`ogg`:   `audio/ogg`,
	`opus`:  `audio/opus`,
	`pdf`:   `application/pdf`,
	`png`:   `image/png`,
	`py`:    `text/x-python`,
	`rar`:   `application/vnd.rar`,
	`sh`:    `text/x-shellscript`,
	`svg`:   `image/svg+xml`,
	`tar`:   `application/x-tar`,
	`tif`:   `image/tiff`,
	`tiff`:  `image/tiff`,
	`toml`:  `text/plain`,
	`ttf`:   `font/ttf`,
	`txt`:   `text/plain`,
	`wav`:   `audio/wav`,
	`weba`:  `audio/webm`,
	`webm`:  `video/webm`,
	`webp`:  `image/webp`,
	`woff`:  `font/woff`,
	`woff2`: `font/woff2`,
	`xhtml`: `application/xhtml+xml`,
	`xls`:   `application/vnd.ms-excel`,
	`xml`:   `application/xml`,
	`yaml`:  `application/yaml`,
	`yml`:   `application/yaml`,
	`zip`:   `application/zip`,
}

var fileTypes = map[string]model.FileType{
	`avif`: model.FileTypeImage,
	`bmp`:  model.FileTypeImage,
	`gif`:  model.FileTypeImage,
	`ico`:  model.FileTypeImage,
	`jpeg`: model.FileTypeImage,
	`jpg`:  model.FileTypeImage,
	`png`:  model.FileTypeImage,
	`svg`:  model.FileTypeImage,
	`tif`:  model.FileTypeImage,
	`tiff`: model.FileTypeImage,
	`webp`: model.FileTypeImage,

	`avi`:  model.FileTypeVideo,
	`m4v`:  model.FileTypeVideo,
	`mkv`:  model.FileTypeVideo,
	`mov`:  model.FileTypeVideo,
	`mp4`:  model.FileTypeVideo,
	`mpeg`: model.FileTypeVideo,
	`webm`: model.FileTypeVideo,

	`aac`:  model.FileTypeAudio,
	`flac`: model.FileTypeAudio,
	`m4a`:  model.FileTypeAudio,
	`mp3`:  model.FileTypeAudio,
	`ogg`:  model.FileTypeAudio,
	`opus`: model.FileTypeAudio,
	`wav`:  model.FileTypeAudio,
	`weba`: model.FileTypeAudio,

	`css`:  model.FileTypeText,
	`csv`:  model.FileTypeText,
	`go`:   model.FileTypeText,
	`htm`:  model.FileTypeText,
	`html`: model.FileTypeText,
	`ini`:  model.FileTypeText,
	`js`:   model.FileTypeText,
	`json`: model.FileTypeText,
	`log`:  model.FileTypeText,
	`md`:   model.FileTypeText,
	`py`:   model.FileTypeText,
	`sh`:   model.FileTypeText,
	`toml`: model.FileTypeText,
	`txt`:  model.FileTypeText,
	`xml`:  model.FileTypeText,
	`yaml`: model.FileTypeText,
	`yml`:  model.FileTypeText,

	`pdf`: model.FileTypePdf,
}

type FsWand struct {
}

var _ model.FsWand = (*FsWand)(nil)

func Magic() FsWand {
	return FsWand{}
}

func extension(name string) string {
	ext := path.Ext(name)
	if len(ext) < 2 {
		return ``
	}
	return strings.ToLower(ext[1:])
}

// Zap returns the mime type for name, by extension only.
func (wand FsWand) Zap(name string) string {
	if mimeType, ok := mimeTypes[extension(name)]; ok {
		return mimeType
	}
	return DefaultMimeType
}

func (wand FsWand) Kind(name string) model.FileType {
	if kind, ok := fileTypes[extension(name)]; ok {
		return kind
	}
	return model.FileTypeOther
}

// Previewable reports whether browsers can show the type inline.
func Previewable(kind model.FileType) bool {
	return kind != model.FileTypeOther && kind != ``
}

func IsMarkdown(name string) bool {
	switch extension(name) {
	case `md`, `markdown`:
		return true
	}
	return false
}
