// Package commitmentengine implements block commitment resolution inside the
// trip-planning context.
//
// The module owns the vote ledger, the proposal registry, and the resolution
// flow that turns member votes on a trip block into a single durable
// commitment: organizer authorization, one-commit-per-block exclusivity, tie
// detection with manual override, trip-wide duplicate policies, and the
// proposal cleanup that follows a soft-blocked duplicate commit. Business
// rules stay in application/domain layers and infrastructure lives behind
// ports and adapters.
package commitmentengine
