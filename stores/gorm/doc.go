//go:build !wasm
// +build !wasm

// Package gorm provides a GORM-based implementation of the mate store
// interfaces. It supports any database that GORM supports (PostgreSQL,
// MySQL, SQLite, etc.) and is the store to use for production deployments
// with a relational database.
//
// # Database Schema
//
// The package auto-migrates a single table:
//   - mates: account records, primary-keyed by email
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	mateStore := gormstore.NewMateStore(db)
package gorm
