// Package store implements persistence for the roster, attendance and accounts.
package store

import (
	"context"
	"fmt"

	"attendance-portal/internal/attendance"
	"attendance-portal/internal/config"
	"attendance-portal/internal/roster"
	"attendance-portal/internal/users"
)

// Backend is everything the services need from one database.
type Backend interface {
	attendance.Store
	roster.Store
	users.Store
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Backend = (*Memory)(nil)
	_ Backend = (*Postgres)(nil)
	_ Backend = (*Mongo)(nil)
)

// Open connects the backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg config.App) (Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendPostgres:
		return NewPostgres(ctx, cfg.DatabaseURL)
	case config.BackendMongo:
		return NewMongo(ctx, cfg.MongoURL, cfg.MongoDatabase)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
