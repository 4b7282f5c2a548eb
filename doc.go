// Package accounts provides user account management: registration with an
// email-based activation lifecycle, JWT authentication, billing-profile
// bootstrapping for superusers, and an append-only key/value runtime
// configuration store.
//
// Accounts are created inactive and become active only through a
// time-windowed, single-use activation key delivered by email. The window
// slides: confirmability is re-evaluated against "now" on every check, so a
// record older than the configured number of days stops being confirmable
// without any stored expiry instant.
//
// Persistence is built on bun repositories; email transport, and everything
// else with side effects, is injected.
package accounts
