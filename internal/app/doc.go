// Package app wires configuration, logging, telemetry, services and the
// HTTP router into a runnable report server.
//
// New builds everything from an already loaded config, which is what the
// tests use; NewApplication loads config.yaml and BEK_* variables first.
// Run serves until SIGINT or SIGTERM and then shuts down in reverse order:
// HTTP server, metrics collector, OpenTelemetry providers, log file.
package app
