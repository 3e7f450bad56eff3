package db

import (
	"context"
	"database/sql"
)

// Database defines the unified interface for relational database access.
// This abstraction allows switching between drivers without touching
// business logic, and lets tests substitute an in-memory fake.
type Database interface {
	Querier

	// Transaction executes fn within a transaction.
	// The transaction is committed if fn returns nil, rolled back otherwise.
	Transaction(ctx context.Context, fn func(tx Transaction) error) error

	// BeginTx starts a new transaction.
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Transaction, error)

	// Ping verifies the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the database and releases pooled connections
	Close() error
}

// Transaction represents an in-flight database transaction.
type Transaction interface {
	Querier

	Commit() error
	Rollback() error
}

// Rows is the result of a query returning multiple rows.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Close() error
	Err() error
}

// Row is the result of a query returning at most one row.
type Row interface {
	Scan(dest ...interface{}) error
}

// Result summarizes an executed statement.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}
