package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ispnet/internal/config"
	"ispnet/internal/coverage"
	"ispnet/internal/logger"
	"ispnet/internal/store"
	"ispnet/internal/topology"
)

type Server struct {
	Store     store.Store
	Engine    *topology.Engine
	Resolver  *coverage.Resolver
	Coverage  *coverage.Composer
	Broker    EventBroker
	Limiter   *TenantLimiter
	Keepalive WSKeepalive
	Config    config.Config
	Log       *zap.Logger
}

// NewServer creates a Server from cfg. If DATABASE_URL is unset it uses the
// in-memory store, optionally seeded from SEED_FILE.
func NewServer(cfg config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = logger.L()
	}
	var st store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		mem := store.NewMemory()
		if cfg.SeedFile != "" {
			if err := mem.LoadSeedFile(cfg.SeedFile, log); err != nil {
				return nil, fmt.Errorf("seed memory store: %w", err)
			}
			log.Info("memory store seeded", zap.String("file", cfg.SeedFile))
		}
		st = mem
	} else {
		pg, err := store.NewPostgres(cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		if err := applyMigrations(pg, cfg, log); err != nil {
			_ = pg.Close()
			return nil, err
		}
		st = pg
	}

	var broker EventBroker = NewBroker()
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL, log); err == nil {
			broker = rb
		} else {
			log.Warn("redis broker unavailable, using in-memory broker", zap.Error(err))
		}
	}
	return New(st, broker, cfg, log), nil
}

type migrator interface {
	MigrateDir(dir string) error
}

// applyMigrations runs the schema migrations when DB_MIGRATE is on. A
// failure aborts startup.
func applyMigrations(m migrator, cfg config.Config, log *zap.Logger) error {
	if !cfg.Migrate {
		return nil
	}
	if err := m.MigrateDir(cfg.MigrationsDir); err != nil {
		return fmt.Errorf("migrate %s: %w", cfg.MigrationsDir, err)
	}
	log.Info("migrations applied", zap.String("dir", cfg.MigrationsDir))
	return nil
}

// New wires a Server around an existing store and broker. A nil log uses
// the process logger.
func New(st store.Store, broker EventBroker, cfg config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = logger.L()
	}
	if broker == nil {
		broker = NewBroker()
	}
	eng := topology.NewEngine(st, log.Named("topology"))
	if cfg.DefaultMaxHops > 0 {
		eng.DefaultHops = cfg.DefaultMaxHops
	}
	if cfg.MaxHopsLimit > 0 {
		eng.MaxHopsLimit = cfg.MaxHopsLimit
	}
	if eng.DefaultHops > eng.MaxHopsLimit {
		eng.DefaultHops = eng.MaxHopsLimit
	}
	res := coverage.NewResolver(st, log.Named("coverage"))
	return &Server{
		Store:    st,
		Engine:   eng,
		Resolver: res,
		Coverage: &coverage.Composer{Resolver: res, Offers: st},
		Broker:   broker,
		Limiter:  NewTenantLimiter(cfg.RateRPS, cfg.RateBurst),
		Config:   cfg,
		Log:      log,
	}
}

// Close releases the store and broker connections, if any.
func (s *Server) Close() error {
	var errs []error
	if c, ok := s.Store.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	if c, ok := s.Broker.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (s *Server) withTenant(r *http.Request) (context.Context, string) {
	// Tenant comes from a header; an upstream gateway is trusted to set it.
	tenant := strings.TrimSpace(r.Header.Get("X-Tenant-Id"))
	if tenant == "" {
		tenant = "t_demo"
	}
	ctx := context.WithValue(r.Context(), ctxKeyTenant{}, tenant)
	return ctx, tenant
}

type ctxKeyTenant struct{}
