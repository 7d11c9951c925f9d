package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorhandlers "github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"

	"github.com/skillreg/registry/internal/admission"
	"github.com/skillreg/registry/internal/cache"
	"github.com/skillreg/registry/internal/config"
	"github.com/skillreg/registry/internal/datastore"
	"github.com/skillreg/registry/internal/dcontext"
	"github.com/skillreg/registry/internal/health"
	"github.com/skillreg/registry/internal/health/checks"
	"github.com/skillreg/registry/internal/objectstore"
	"github.com/skillreg/registry/internal/version"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "path to the admission service configuration file")
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if configPath == "" {
		fatalf("-config is required")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fatalf("configuration error: %v", err)
	}

	ctx := configureLogging(dcontext.WithVersion(dcontext.Background(), version.Version()), cfg)
	logger := dcontext.GetLogger(ctx)

	db, err := datastore.Open(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("connecting to database: %v", err)
	}
	defer db.Close()

	store, err := newObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatalf("configuring object storage: %v", err)
	}

	registry := health.NewRegistry()
	registry.Register("database", checks.DatabaseChecker(db.SQL()))
	registry.Register("storage", checks.ObjectStoreChecker(store, ".health-check"))

	app := admission.NewApp(admission.Config{Bucket: cfg.Storage.Bucket}, db, store)
	if cfg.Cache.Addr != "" {
		manifestCache := cache.NewManifestCache(cfg.Cache.Addr)
		defer manifestCache.Close()
		app.Cache = manifestCache
	}

	mux := http.NewServeMux()
	mux.Handle("/debug/health", registry.StatusHandler())
	mux.Handle("/", registry.Gate(app))

	var handler http.Handler = gorhandlers.CombinedLoggingHandler(os.Stdout, mux)

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	if cfg.HTTP.TLS.Certificate != "" {
		tlsConf, err := tlsConfig(cfg)
		if err != nil {
			logger.Fatalf("configuring tls: %v", err)
		}
		srv.TLSConfig = tlsConf
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("listening on %s (instance %s)", cfg.HTTP.Addr, app.InstanceID)

	var serveErr error
	if srv.TLSConfig != nil {
		serveErr = srv.ListenAndServeTLS(cfg.HTTP.TLS.Certificate, cfg.HTTP.TLS.Key)
	} else {
		serveErr = srv.ListenAndServe()
	}
	if serveErr != nil && serveErr != http.ErrServerClosed {
		logger.Fatal(serveErr)
	}
}

func loadConfig(path string) (*config.Config, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening configuration file: %w", err)
	}
	defer fp.Close()
	return config.Parse(fp)
}

func configureLogging(ctx context.Context, cfg *config.Config) context.Context {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.Log.Formatter == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := logrus.StandardLogger().WithField("service", "admission")
	dcontext.SetDefaultLogger(logger)
	return dcontext.WithLogger(ctx, logger)
}

func newObjectStore(cfg config.Storage) (objectstore.Store, error) {
	switch cfg.Driver {
	case "memory", "":
		return objectstore.NewMemoryStore(), nil
	case "s3":
		return objectstore.NewS3Store(objectstore.S3Params{
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			Bucket:         cfg.Bucket,
			Region:         cfg.S3.Region,
			RegionEndpoint: cfg.S3.RegionEndpoint,
			ForcePathStyle: cfg.S3.ForcePathStyle,
			Secure:         cfg.S3.Secure,
			RootDirectory:  cfg.S3.RootDirectory,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func tlsConfig(cfg *config.Config) (*tls.Config, error) {
	tlsConf := &tls.Config{ClientAuth: tls.NoClientCert}

	if len(cfg.HTTP.TLS.ClientCAs) > 0 {
		pool := x509.NewCertPool()
		for _, ca := range cfg.HTTP.TLS.ClientCAs {
			pem, err := os.ReadFile(ca)
			if err != nil {
				return nil, fmt.Errorf("reading client CA %s: %w", ca, err)
			}
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("could not add client CA %s to pool", ca)
			}
		}
		tlsConf.ClientAuth = tls.RequireAndVerifyClientCert
		tlsConf.ClientCAs = pool
	}

	return tlsConf, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: registry -config <path>")
	flag.PrintDefaults()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "registry: "+format+"\n", args...)
	os.Exit(1)
}
