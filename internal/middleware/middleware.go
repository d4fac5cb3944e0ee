package middleware

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/zstd"
)

// Standard is the stack every site router uses. It has to run inside a chi
// router since CleanPath rewrites the route context.
func Standard(logger middleware.LogFormatter, timeout time.Duration, compress int) []func(http.Handler) http.Handler {
	wares := []func(http.Handler) http.Handler{
		middleware.Recoverer,
		middleware.RequestLogger(logger),
		middleware.RealIP,
		middleware.RequestID,
		middleware.CleanPath,
		middleware.Timeout(timeout),
	}
	if compress >= 0 {
		wares = append(wares, Compress(compress))
	}
	return wares
}

func Control(withLogger bool, logger middleware.LogFormatter) []func(http.Handler) http.Handler {
	wares := []func(http.Handler) http.Handler{
		middleware.Recoverer,
	}
	if withLogger {
		wares = append(wares, middleware.RequestLogger(logger))
	}
	return append(wares, []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.CleanPath,
		middleware.Timeout(15 * time.Second),
		Compress(5),
	}...)
}

// Compress is chi's compressor with zstd preferred over gzip and deflate.
func Compress(level int) func(http.Handler) http.Handler {
	compressor := middleware.NewCompressor(level)
	compressor.SetEncoder(`zstd`, func(w io.Writer, level int) io.Writer {
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)), zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil
		}
		return encoder
	})
	return compressor.Handler
}
