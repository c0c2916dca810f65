// Package utils holds the CLI plumbing shared by the ghfork command.
//
// ConfigurationLoader layers embedded defaults, config files, and GHFORK_ environment
// variables through Viper; LoggerFactory builds zap loggers in structured or console form.
package utils
