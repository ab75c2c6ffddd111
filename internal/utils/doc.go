// Package utils exposes reusable helpers consumed by the CLI and its commands.
//
// It houses ConfigurationLoader and LoggerFactory, which integrate Viper,
// environment variables and zap logging, plus small context and writer helpers.
package utils
