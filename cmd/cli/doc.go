// Package cli constructs the triggershift command-line interface, wiring the
// Cobra command hierarchy, the Viper-backed configuration loader with its
// embedded defaults, and zap logging for the migrate command.
package cli
