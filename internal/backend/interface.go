// Package backend assembles the expense store and the optional event client
// selected by configuration.
package backend

import (
	"context"

	"zoexpense/internal/amqp"
	"zoexpense/internal/services"
	"zoexpense/internal/storage"
)

type CleanupFunc func() error

// BackendResult is everything a process needs to reach its data. Publisher
// and Events are nil when AMQP is not configured.
type BackendResult struct {
	Store     storage.ExpenseStore
	Publisher services.Publisher
	Events    *amqp.Client
	Ready     func(context.Context) error
	Cleanup   CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	}
	return false
}
