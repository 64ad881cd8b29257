package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"luminapos/internal/adapter/firestore"
	adapthttp "luminapos/internal/adapter/http"
	"luminapos/internal/adapter/memory"
	"luminapos/internal/adapter/postgres"
	"luminapos/internal/adapter/redis"
	"luminapos/internal/adapter/sqlite"
	"luminapos/internal/app"
	"luminapos/internal/config"
	"luminapos/internal/domain"
	"luminapos/internal/logging"
	"luminapos/internal/metrics"
	"luminapos/internal/persistence"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	remote, closer := openRemote(ctx, cfg, log)
	if closer != nil {
		closers = append(closers, closer)
	}

	cache, closer, err := openCache(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	m := metrics.New()
	facade := persistence.New(remote, cache, log, persistence.WithObserver(m))
	m.ModeChanged(facade.Mode())

	secret, err := sessionSecret(cfg, log)
	if err != nil {
		return err
	}

	svc := adapthttp.Services{
		Licenses: app.NewLicenseService(facade, cfg.MasterKey),
		Admin:    app.NewAdminService(facade, app.PasswordMode(cfg.AdminPasswordMode)),
		Sessions: app.NewSessionService(secret, cfg.SessionTTL),
		Catalog:  app.NewCatalogService(facade),
		Debts:    app.NewDebtService(facade),
		Finance:  app.NewFinanceService(facade),
		Shop:     app.NewShopService(facade),
	}

	oidcCfg, err := newOIDCConfig(ctx, cfg.OIDC, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           adapthttp.New(svc, facade, m, oidcCfg, log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("remote", cfg.RemoteBackend),
			zap.String("cache", cfg.CacheBackend),
			zap.Stringer("mode", facade.Mode()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// sessionSecret returns the configured signing secret. Outside production a
// missing secret is replaced by a random one.
func sessionSecret(cfg *config.Config, log *zap.Logger) ([]byte, error) {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret), nil
	}
	if cfg.IsProduction() {
		return nil, errors.New("SESSION_SECRET is required in production")
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	log.Warn("SESSION_SECRET is not set; sessions will not survive a restart")
	return secret, nil
}

// openRemote connects the configured remote store. A failure to connect starts
// the facade offline instead of aborting.
func openRemote(ctx context.Context, cfg *config.Config, log *zap.Logger) (domain.DocumentStore, io.Closer) {
	var (
		store  domain.DocumentStore
		closer io.Closer
		err    error
	)
	switch cfg.RemoteBackend {
	case config.RemoteNone:
		return nil, nil
	case config.RemoteMemory:
		return memory.New(), nil
	case config.RemotePostgres:
		var db *postgres.DB
		db, err = postgres.Open(cfg.DatabaseURL)
		store, closer = db, db
	case config.RemoteFirestore:
		var fs *firestore.Store
		fs, err = firestore.Open(ctx, cfg.FirestoreProject, cfg.FirestoreCredFile)
		store, closer = fs, fs
	case config.RemoteRedis:
		var rs *redis.Store
		rs, err = redis.Open(ctx, cfg.RedisURL, cfg.RedisPrefix)
		store, closer = rs, rs
	}
	if err != nil {
		log.Warn("remote store unavailable, starting offline",
			zap.String("backend", cfg.RemoteBackend), zap.Error(err))
		return nil, nil
	}
	return store, closer
}

func openCache(cfg *config.Config) (domain.CacheStore, io.Closer, error) {
	if cfg.CacheBackend == config.CacheMemory {
		return memory.NewCache(), nil, nil
	}
	c, err := sqlite.Open(cfg.CachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}
	return c, c, nil
}

func newOIDCConfig(ctx context.Context, o config.OIDC, log *zap.Logger) (adapthttp.OIDCConfig, error) {
	if !o.Enabled() {
		return adapthttp.OIDCConfig{}, nil
	}
	if len(o.Allowed()) == 0 {
		log.Warn("OIDC_ALLOWED_EMAILS is empty; single sign-on will reject every identity")
	}
	provider, err := oidc.NewProvider(ctx, o.Issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, fmt.Errorf("oidc provider: %w", err)
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			RedirectURL:  o.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		Allowed: o.Allowed(),
	}, nil
}
