// Package bootstrap wires infrastructure clients and stores from
// configuration so the binaries share the same LocalStack/production setup.
package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/turnoflow/booking-platform/internal/config"
	"github.com/turnoflow/booking-platform/internal/events"
	"github.com/turnoflow/booking-platform/internal/payments"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildPaymentsGateway picks the Stripe gateway or the fake depending on
// configuration. Without a secret key the fake is used so bookings still work
// in development.
func BuildPaymentsGateway(cfg *appconfig.Config, logger *logging.Logger) payments.Gateway {
	if cfg == nil || strings.TrimSpace(cfg.StripeSecretKey) == "" {
		return payments.NewFakeGateway()
	}
	return payments.NewStripeGateway(cfg.StripeSecretKey, logger).WithDryRun(cfg.StripeDryRun)
}

// BuildLedger opens the Postgres booking-events ledger. An empty DATABASE_URL
// disables it; both return values are nil then.
func BuildLedger(cfg *appconfig.Config, logger *logging.Logger) (*events.Ledger, *sql.DB, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: open ledger db: %w", err)
	}
	if err := db.Ping(); err != nil {
		logger.Warn("ledger database not available, events disabled", "error", err)
		_ = db.Close()
		return nil, nil, nil
	}
	logger.Info("booking events ledger enabled")
	return events.NewLedger(db), db, nil
}
