// Package storage is the optional delivery audit log.
//
// Every delivery attempt the scheduler makes (a schedule firing or an
// hourly digest post) can be recorded for later inspection. Two
// drivers: a JSON Lines append file and SQLite (build tag "sqlite").
package storage
