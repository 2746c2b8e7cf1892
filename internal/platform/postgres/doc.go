// Package postgres provides PostgreSQL implementations of the store
// interfaces. All implementations run on the store.DBTX abstraction so they
// can operate either on a plain connection or inside a transaction.
package postgres
