// Package postgres provides PostgreSQL-backed implementations of the store
// interfaces, along with helpers that map driver errors to store sentinels.
package postgres
