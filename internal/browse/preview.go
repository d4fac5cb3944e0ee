package browse

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strconv"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/russross/blackfriday/v2"

	"dirindex/internal/model"
)

const (
	maxPreview  = 4 << 20
	minThumb    = 16
	maxThumb    = 1024
	listThumb   = 48
	jpegQuality = 85
	maxPixels   = 40_000_000
)

var (
	errBadRequest  = errors.New(`bad request`)
	errUnsupported = errors.New(`unsupported media type`)
	errTooLarge    = errors.New(`image too large`)
)

// markdown renders the file as HTML. Raw HTML in the source is dropped.
func markdown(file model.FsFile) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(file.Content, maxPreview))
	if err != nil {
		return nil, errors.Wrapf(err, `read %s`, file.Path)
	}
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML | blackfriday.Safelink | blackfriday.NofollowLinks | blackfriday.NoopenerLinks,
	})
	return blackfriday.Run(data, blackfriday.WithRenderer(renderer), blackfriday.WithExtensions(blackfriday.CommonExtensions)), nil
}

func parseThumb(text string) (uint, error) {
	size, err := strconv.Atoi(text)
	if err != nil || size < minThumb || size > maxThumb {
		return 0, errors.Wrapf(errBadRequest, `thumbnail size "%s" is outside %d..%d`, text, minThumb, maxThumb)
	}
	return uint(size), nil
}

// thumbnail scales the image to fit a size by size box. PNG and GIF sources
// come back as PNG to keep transparency, everything else as JPEG. Images over
// maxPixels are refused before any pixel data is decoded.
func thumbnail(file model.FsFile, size uint) ([]byte, string, error) {
	if file.Type != model.FileTypeImage {
		return nil, ``, errors.Wrapf(errUnsupported, `%s is not an image`, file.Path)
	}
	config, _, err := image.DecodeConfig(file.Content)
	if err != nil {
		return nil, ``, errors.Wrapf(errUnsupported, `decode %s: %s`, file.Path, err)
	}
	if int64(config.Width)*int64(config.Height) > maxPixels {
		return nil, ``, errors.Wrapf(errTooLarge, `%s is %dx%d`, file.Path, config.Width, config.Height)
	}
	if _, err := file.Content.Seek(0, io.SeekStart); err != nil {
		return nil, ``, errors.Wrapf(err, `rewind %s`, file.Path)
	}
	img, format, err := image.Decode(file.Content)
	if err != nil {
		return nil, ``, errors.Wrapf(errUnsupported, `decode %s: %s`, file.Path, err)
	}
	thumb := resize.Thumbnail(size, size, img, resize.Lanczos3)
	buffer := &bytes.Buffer{}
	switch format {
	case `png`, `gif`:
		if err := png.Encode(buffer, thumb); err != nil {
			return nil, ``, errors.Wrap(err, `encode png`)
		}
		return buffer.Bytes(), `image/png`, nil
	default:
		if err := jpeg.Encode(buffer, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, ``, errors.Wrap(err, `encode jpeg`)
		}
		return buffer.Bytes(), `image/jpeg`, nil
	}
}
