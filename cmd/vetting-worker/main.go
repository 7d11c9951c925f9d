package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/skillreg/registry/internal/config"
	"github.com/skillreg/registry/internal/datastore"
	"github.com/skillreg/registry/internal/dcontext"
	"github.com/skillreg/registry/internal/objectstore"
	"github.com/skillreg/registry/internal/secretstore"
	"github.com/skillreg/registry/internal/version"
	"github.com/skillreg/registry/internal/worker"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "path to the vetting worker configuration file")
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
	logger.Infof("vetting worker version %s", dcontext.GetVersion(ctx))

	db, err := datastore.Open(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("connecting to database: %v", err)
	}
	defer db.Close()

	store, err := newObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatalf("configuring object storage: %v", err)
	}

	secrets, err := newSecretStore(cfg.Secrets)
	if err != nil {
		logger.Fatalf("configuring secret store: %v", err)
	}

	runner := &worker.Runner{
		DB:  db,
		DSN: cfg.Database.DSN,
		Pipeline: &worker.Pipeline{
			DB:          db,
			Store:       store,
			Secrets:     secrets,
			Bucket:      cfg.Storage.Bucket,
			CASecretARN: cfg.Secrets.CAARN,
		},
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("vetting worker starting")
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal(err)
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

	logger := logrus.StandardLogger().WithField("service", "vetting-worker")
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

func newSecretStore(cfg config.Secrets) (secretstore.Store, error) {
	switch cfg.Driver {
	case "awssecretsmanager", "":
		return secretstore.NewAWSStore(cfg.Region)
	case "static":
		pemBytes, err := os.ReadFile(cfg.StaticKeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading static CA key: %w", err)
		}
		return secretstore.NewStaticStore(map[string]secretstore.CASecret{
			cfg.CAARN: {PrivateKeyPEM: string(pemBytes)},
		}), nil
	default:
		return nil, fmt.Errorf("unknown secrets driver %q", cfg.Driver)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: vetting-worker -config <path>")
	flag.PrintDefaults()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "vetting-worker: "+format+"\n", args...)
	os.Exit(1)
}
