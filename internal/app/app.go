// Package app wires storage, repositories and the event publisher shared by the
// server and the admin CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"clientDirectory/internal/auth"
	"clientDirectory/internal/config"
	"clientDirectory/internal/db"
	"clientDirectory/internal/events"
	"clientDirectory/repository"
)

// Store bundles the database handles and the repositories built on them.
type Store struct {
	DB     *sql.DB
	Gorm   *gorm.DB
	Driver string

	Users     *repository.UserRepository
	Companies *repository.CompanyRepository
	Clients   *repository.ClientRepository
	Links     *repository.ClientUserRepository
}

// OpenStore opens the configured database, applies pending migrations and builds
// the repositories.
func OpenStore(cfg config.DatabaseConfig) (*Store, error) {
	d, err := db.OpenDriver(cfg.Driver, cfg.DataSource())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	g, err := db.Gorm(d, cfg.Driver)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	return &Store{
		DB:        d,
		Gorm:      g,
		Driver:    cfg.Driver,
		Users:     repository.NewUserRepository(g),
		Companies: repository.NewCompanyRepository(g),
		Clients:   repository.NewClientRepository(g),
		Links:     repository.NewClientUserRepository(g),
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.DB.Close()
}

// BootstrapAdmin makes sure the configured administrator exists. It is a no-op when
// no admin username is configured.
func BootstrapAdmin(ctx context.Context, users *repository.UserRepository, cfg config.AdminConfig, logger *zap.Logger) error {
	if cfg.Username == "" {
		return nil
	}
	if cfg.Email == "" || cfg.Password == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required when ADMIN_USERNAME is set")
	}
	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	u, created, err := users.EnsureAdmin(ctx, cfg.Username, cfg.Email, hash)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		logger.Info("bootstrap admin created", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	} else {
		logger.Info("bootstrap admin present", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	}
	return nil
}

// NewPublisher returns a RabbitMQ publisher, or a no-op one when no broker is configured.
func NewPublisher(cfg config.EventsConfig, logger *zap.Logger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		logger.Info("event publishing disabled")
		return events.Noop{}, nil
	}
	return events.DialAMQP(cfg.AMQPURL, cfg.Exchange, logger)
}
