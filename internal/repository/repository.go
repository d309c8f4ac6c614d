// Package repository provides data access interfaces and implementations
// for the paper agent.
//
// # Overview
//
// This package defines repository interfaces and their PostgreSQL
// implementations following the repository pattern to abstract data
// persistence from pipeline logic.
//
// # Repository Interfaces
//
//   - PaperRepository: Manages paper persistence and pipeline state
//   - AuthorRepository: Manages the important-author registry
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use by multiple
// goroutines. The underlying pgxpool handles connection pooling and
// synchronization.
//
// # Error Handling
//
// All methods return domain-specific errors from the domain package.
// Database errors are wrapped with context using fmt.Errorf with %w.
// Common errors include:
//
//   - domain.ErrNotFound: Resource does not exist
//   - domain.ErrInvalidInput: Invalid parameters provided
//
// # Transactions
//
// Repositories accept the DBTX interface so they work against both the
// connection pool and a pgx transaction.
package repository

import (
	"github.com/helixir/paper-agent/internal/database"
)

// DBTX is the database interface supporting both pool and transaction
// contexts.
type DBTX = database.DBTX
