package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/buyer-dedupe/internal/buyer"
	"github.com/sells-group/buyer-dedupe/internal/resilience"
	"github.com/sells-group/buyer-dedupe/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		retry := retryConfig()
		retry.OnRetry = resilience.RetryLogger("connect_postgres")
		return resilience.DoVal(ctx, retry, func(ctx context.Context) (store.Store, error) {
			return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			})
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newService(st store.Store) *buyer.Service {
	return buyer.NewService(st,
		buyer.WithParallelThreshold(cfg.Match.ParallelThreshold),
		buyer.WithWorkers(cfg.Match.Workers),
		buyer.WithRetry(retryConfig()),
	)
}

func retryConfig() resilience.RetryConfig {
	retry := resilience.DefaultRetryConfig()
	if cfg.Store.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.Store.RetryAttempts
	}
	return retry
}

// withService opens the store, runs fn, and closes the store.
func withService(ctx context.Context, fn func(*buyer.Service) error) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	return fn(newService(st))
}

func requireOwner() error {
	if ownerID == "" {
		return eris.New("--owner is required")
	}
	return nil
}
