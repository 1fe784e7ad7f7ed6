package database

import (
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// NewBunDB wraps an open Postgres connection with the bun query builder
// and registers the application's table models.
func NewBunDB(sqlDB *sql.DB) *bun.DB {
	db := bun.NewDB(sqlDB, pgdialect.New())
	db.RegisterModel((*User)(nil))
	return db
}
