// Package store holds the bot's persisted collections: scheduled
// messages, checklist tasks, and per-guild feature flags.
//
// Each store owns one JSON snapshot file and rewrites it whole on every
// mutation. Item counts are expected to stay small; durability over
// throughput. The on-disk field names are a compatibility contract with
// files written by earlier versions of the bot and must not change.
package store
