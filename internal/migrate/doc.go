// Package migrate drives workflow rewrites end to end. It runs each discovered workflow through
// classification, the rule engine, the idempotence guard and the diff verifier, persists accepted
// rewrites behind a backup, and reports per-file outcomes.
package migrate
