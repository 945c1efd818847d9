// Package scheduler runs the bot's two delivery loops.
//
// The schedule-check loop polls every CheckInterval, fires items whose
// HH:MM matches the current minute exactly, and marks them with
// today's date so an item fires at most once per calendar day. The
// hourly-digest loop polls every DigestInterval and posts each guild's
// checklist when a tick lands inside the short window at the top of
// the hour.
//
// Known limitations, kept on purpose:
//   - successive ticks of a loop are not mutually exclusive, so a tick
//     that outlives the interval can race the last-run write and
//     double-send within the matching minute;
//   - a 30s cadence does not guarantee a tick lands inside the digest
//     window every hour, so a digest can be skipped.
//
// A tick missed while the process is down is skipped, never backfilled.
package scheduler
