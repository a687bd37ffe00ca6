package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/simp-lee/logger"

	storefront "github.com/goliatone/go-storefront/components/storefront"
	"github.com/goliatone/go-storefront/pkg/api"
)

// app holds the collaborators every subcommand shares.
type app struct {
	cfg      *Config
	log      *logger.Logger
	logger   *slog.Logger
	storage  storefront.Storage
	registry *storefront.Registry
	http     *api.HTTPClient
	services *api.Services
	session  *storefront.Session
	out      io.Writer
	errOut   io.Writer
}

func (g *globals) open(ctx context.Context) (*app, error) {
	cfg, err := LoadConfig(g.Config)
	if err != nil {
		return nil, err
	}
	if g.BaseURL != "" {
		cfg.API.BaseURL = g.BaseURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if g.Debug {
		cfg.Log.Level = "debug"
	}

	log, err := setupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("storefrontctl: setup logger: %w", err)
	}
	a := &app{cfg: cfg, log: log, logger: log.Logger, out: os.Stdout, errOut: os.Stderr}

	if cfg.Storage.Path == "" {
		a.storage = storefront.NewInMemoryStorage()
	} else {
		fs, err := storefront.OpenFileStorage(cfg.Storage.Path)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.storage = fs
	}

	var hooks []storefront.RegistryHook
	if cfg.API.Manifest != "" {
		hooks = append(hooks, storefront.ManifestFileHook(cfg.API.Manifest))
	}
	a.registry, err = storefront.NewRegistry(hooks...)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.http, err = api.NewHTTPClient(api.HTTPConfig{
		BaseURL:    cfg.API.BaseURL,
		Tokens:     api.TokenFunc(a.token),
		HTTPClient: &http.Client{Timeout: cfg.RequestTimeout()},
		Logger:     a.logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.services = api.NewServices(a.http, a.registry)

	a.session, err = storefront.NewSession(ctx, storefront.SessionOptions{
		Storage: a.storage,
		Auth:    a.services.Auth,
		Logger:  a.logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) token() string {
	if a.session == nil {
		return ""
	}
	return a.session.Token()
}

func (a *app) Close() {
	if a.log == nil {
		return
	}
	if err := a.log.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "storefrontctl: close logger: %v\n", err)
	}
}

// namespace resolves "admin" or "api" and enforces the matching route guard.
func (a *app) namespace(name string) (*api.Namespace, error) {
	switch storefront.Namespace(name) {
	case storefront.NamespaceAdmin:
		if err := a.session.RequireStaff(); err != nil {
			return nil, err
		}
		return a.services.Admin, nil
	case storefront.NamespaceAPI, "":
		return a.services.App, nil
	}
	return nil, fmt.Errorf("storefrontctl: unknown namespace %q", name)
}

func (a *app) notifier() storefront.Notifier {
	return storefront.NotifierFunc(func(_ context.Context, toast storefront.Toast) {
		mark := "•"
		switch toast.Level {
		case storefront.ToastSuccess:
			mark = "✓"
		case storefront.ToastError:
			mark = "✗"
		}
		fmt.Fprintf(a.errOut, "%s %s\n", mark, toast.Message)
	})
}

func (a *app) telemetry() storefront.Telemetry {
	return storefront.LogTelemetry{Logger: a.logger, Level: slog.LevelDebug}
}
