// Package store owns every passcode hash in the system. Verification and
// rotation run as single transactions so the failed-attempt counter and lock
// window always move together with the comparison; callers treat them as
// opaque atomic operations and never touch hashes directly.
package store

import (
	"errors"

	"gorm.io/gorm"
)

// Lockout policy and history depth, enforced entirely inside this package.
const (
	MaxFailedAttempts = 5
	LockoutDuration   = 15 // minutes
	HistoryDepth      = 5
)

var (
	ErrConfigNotFound = errors.New("security config not found")
)

// Store wraps the relational store behind the atomic passcode operations.
type Store struct {
	db *gorm.DB
}

// New returns a Store using the provided DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and read-only queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}
