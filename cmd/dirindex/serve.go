package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dirindex/internal/browse"
	"dirindex/internal/config"
	"dirindex/internal/control"
	"dirindex/internal/handler"
	"dirindex/internal/middleware"
	"dirindex/internal/oe"
	"dirindex/internal/volatile"
	"dirindex/internal/wand"
)

type Service struct {
	label    string
	scheme   string
	features []string
	server   *http.Server
}
type Services []Service

func newPolicy(cfg *config.Config) browse.Policy {
	return browse.NewPolicy(cfg.ShowHidden, cfg.IgnoreFiles)
}

// newDriver applies the hide policy to symlink targets too.
func newDriver(cfg *config.Config) (oe.FsDriver, error) {
	driver, err := oe.NewFsDriver(cfg.Root, wand.Magic())
	if err != nil {
		return driver, err
	}
	return driver.WithHide(newPolicy(cfg).Hides), nil
}

// assets loads the local favicon and robots.txt into memory.
func assets(cfg *config.Config, favicon string, logger control.Logger) (volatile.Fs, error) {
	vfs := volatile.NewFs()
	if favicon != `` {
		if err := vfs.FromFile(cfg.BasePath+`/favicon.ico`, favicon, func(data []byte) (string, error) {
			img, format, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				// ico and svg have no decoder here
				mime := wand.Magic().Zap(favicon)
				if !strings.HasPrefix(mime, `image/`) {
					return ``, errors.Wrapf(err, `favicon %s`, favicon)
				}
				logger.Info(`load favicon.ico %s %d (%s)`, favicon, len(data), mime)
				return mime, nil
			}
			bounds := img.Bounds()
			logger.Info(`load favicon.ico %s %d (%dx%d; %s)`, favicon, len(data), bounds.Dx(), bounds.Dy(), format)
			return `image/` + format, nil
		}); err != nil {
			return vfs, errors.Wrap(err, `load favicon`)
		}
	}
	if cfg.RobotsTxt != `` {
		if err := vfs.FromFile(`/robots.txt`, cfg.RobotsTxt, func(data []byte) (string, error) {
			logger.Info(`load robots.txt %s %d`, cfg.RobotsTxt, len(data))
			return `text/plain; charset=utf-8`, nil
		}); err != nil {
			return vfs, errors.Wrap(err, `load robots.txt`)
		}
	}
	return vfs, nil
}

// site builds the router shared by the http and https listeners.
func site(label string, cfg *config.Config, browser http.Handler, vfs volatile.Fs, registerer prometheus.Registerer, logger *volatile.Logger) (http.Handler, []string, error) {
	features := []string{}
	notFound := handler.Status(http.StatusNotFound, cfg.ErrorPageURL)
	router := chi.NewRouter()
	router.Use(middleware.Standard(volatile.NewLogFormatter(label, logger), cfg.TimeoutRequest, cfg.Compression)...)
	router.Use(middleware.MethodFilter(handler.Status(http.StatusMethodNotAllowed, cfg.ErrorPageURL), http.MethodGet, http.MethodHead))
	router.Use(middleware.Dump(label, logger))
	if cfg.Prometheus {
		instrument, err := middleware.Prometheus(label, registerer)
		if err != nil {
			return nil, nil, errors.Wrapf(err, `%s.prometheus`, label)
		}
		router.Use(instrument)
		features = append(features, `prometheus`)
	}
	if vfs.Len() > 0 {
		router.Use(middleware.Assets(vfs, logger))
		features = append(features, `vfs`)
	}
	mount := cfg.BasePath
	if mount == `` {
		mount = `/`
	} else {
		features = append(features, `base=`+mount)
	}
	router.Mount(mount, browser)
	router.NotFound(notFound.ServeHTTP)
	if cfg.Compression >= 0 {
		features = append(features, `compress`)
	}
	sort.Strings(features)
	return router, features, nil
}

func serve(logger *volatile.Logger) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = `localhost`
	}
	logger.Info(`dirindex %s`, hostname)

	s, err := prepare(logger)
	if err != nil {
		logger.Error(`config error: %s`, err)
		return err
	}
	cfg := s.cfg
	for _, prefix := range cfg.LogTrim {
		logger.Trim(prefix)
	}

	driver, err := newDriver(cfg)
	if err != nil {
		logger.Error(`root error: %s`, err)
		return err
	}
	logger.Info(`root %s`, driver.Base())

	favicon := ``
	if !s.theme.FaviconIsRemote() {
		favicon = s.theme.Favicon
	}
	vfs, err := assets(cfg, favicon, logger)
	if err != nil {
		logger.Error(`%s`, err)
		return err
	}

	registerer := prometheus.DefaultRegisterer
	var metrics *browse.Metrics
	if cfg.Prometheus {
		if metrics, err = browse.NewMetrics(registerer); err != nil {
			logger.Error(`metrics error: %s`, err)
			return err
		}
	}

	browser, err := browse.NewHandler(browse.Options{
		Driver:       driver,
		Catalog:      s.catalog,
		Theme:        s.theme,
		Policy:       newPolicy(cfg),
		SiteName:     cfg.SiteName,
		BasePath:     cfg.BasePath,
		Thumbnails:   cfg.Thumbnails,
		ErrorPageURL: cfg.ErrorPageURL,
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		logger.Error(`browse error: %s`, err)
		return err
	}
	routes := browser.Routes()

	errorLog := log.New(control.NewHttpLogWriter(logger), ``, 0)
	var services Services

	// http
	if cfg.HttpsOnly {
		services = append(services, Service{label: `http`, scheme: `http`, features: []string{`https-only`}, server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      handler.Upgrade(cfg.Https),
			ErrorLog:     errorLog,
			IdleTimeout:  cfg.TimeoutIdle,
			ReadTimeout:  cfg.TimeoutRead,
			WriteTimeout: cfg.TimeoutWrite,
		}})
	} else {
		router, features, err := site(`http`, cfg, routes, vfs, registerer, logger)
		if err != nil {
			logger.Error(`%s`, err)
			return err
		}
		services = append(services, Service{label: `http`, scheme: `http`, features: features, server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      router,
			ErrorLog:     errorLog,
			IdleTimeout:  cfg.TimeoutIdle,
			ReadTimeout:  cfg.TimeoutRead,
			WriteTimeout: cfg.TimeoutWrite,
		}})
	}

	// https
	if cfg.HttpsEnabled() {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			logger.Error(`load key pair: error: %s`, err)
			return err
		}
		tlsConfig := &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
			CurvePreferences: []tls.CurveID{
				tls.CurveP256,
				tls.X25519,
			},
			CipherSuites: []uint16{
				tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
				tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
				tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			},
		}
		router, features, err := site(`https`, cfg, routes, vfs, registerer, logger)
		if err != nil {
			logger.Error(`%s`, err)
			return err
		}
		services = append(services, Service{label: `https`, scheme: `https`, features: append([]string{`hsts`, `tls`}, features...), server: &http.Server{
			Addr:         cfg.Https,
			Handler:      middleware.Hsts(365 * 24 * time.Hour)(router),
			TLSConfig:    tlsConfig,
			ErrorLog:     errorLog,
			IdleTimeout:  cfg.TimeoutIdle,
			ReadTimeout:  cfg.TimeoutRead,
			WriteTimeout: cfg.TimeoutWrite,
		}})
	} else {
		logger.Info(`https.disabled`)
	}

	// ctrl
	if cfg.CtrlEnabled() {
		features := []string{`log`}
		router := chi.NewRouter()
		router.Use(middleware.Control(cfg.LogLevel <= control.LogLevelDebug, volatile.NewLogFormatter(`ctrl`, logger))...)
		router.NotFound(handler.NotFound.ServeHTTP)
		router.MethodNotAllowed(handler.MethodNotAllowed.ServeHTTP)
		if cfg.Prometheus {
			router.Mount(`/metrics/prometheus`, promhttp.Handler())
			features = append(features, `prometheus`)
		}
		router.Handle(`/log`, handler.Log(logger))
		services = append(services, Service{label: `ctrl`, scheme: `http`, features: features, server: &http.Server{
			Addr:         cfg.Ctrl,
			Handler:      router,
			ErrorLog:     errorLog,
			IdleTimeout:  cfg.TimeoutIdle,
			ReadTimeout:  cfg.TimeoutRead,
			WriteTimeout: cfg.TimeoutWrite,
		}})
	} else {
		logger.Info(`ctrl.disabled`)
	}

	// start
	for _, service := range services {
		service := service
		go func() {
			connect := service.server.Addr
			if strings.IndexRune(connect, ':') == 0 {
				connect = hostname + connect
			}
			features := ``
			if len(service.features) > 0 {
				features = ` ` + strings.Join(service.features, ` `)
			}
			logger.Info(`%s.up %s://%s/%s`, service.label, service.scheme, connect, features)
			var err error
			if service.server.TLSConfig == nil {
				err = service.server.ListenAndServe()
			} else {
				err = service.server.ListenAndServeTLS(``, ``)
			}
			if err != nil && err != http.ErrServerClosed {
				logger.Fatal(`%s.serve error: %s`, service.label, err)
			} else {
				logger.Info(`%s.down`, service.label)
			}
		}()
	}

	// into the beyond
	<-func(signals chan os.Signal) <-chan os.Signal {
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		return signals
	}(make(chan os.Signal, 1))

	// halt
	wg := sync.WaitGroup{}
	for _, service := range services {
		service := service
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), cfg.TimeoutShutdown)
			defer cancel()
			if err := service.server.Shutdown(ctx); err != nil {
				logger.Error(`%s.shutdown error: %s`, service.label, err)
			}
		}()
	}
	wg.Wait()
	return nil
}
