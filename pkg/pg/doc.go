// Package pg bootstraps the PostgreSQL layer for the engine: a pgx/v5
// connection pool with startup retries, goose schema migrations, a health
// check closure, and helpers for classifying pgx errors.
//
// Every persistent store in the engine (admin records, subscriptions, usage
// counters, promo codes, audit trail) runs on the pool this package opens.
package pg
