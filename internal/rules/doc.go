// Package rules maps a classified pattern and a migration target to a
// rewrite. Rules are pure: they read one document and return a new one along
// with a change log describing every line they removed or added.
package rules
