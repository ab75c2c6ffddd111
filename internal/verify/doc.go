// Package verify checks rewritten workflows before they are persisted: the guard re-classifies and
// re-applies the engine to prove idempotence, and the diff verifier requires every changed line to be
// explained by the change log or the target's allow-list.
package verify
