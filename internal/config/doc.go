// Package config loads application configuration and resolves directories.
//
// Values come from three layers, later layers winning:
//
//  1. Default()
//  2. config.yaml (current directory, configs/, or next to the executable)
//  3. BEK_* environment variables
//
// Environment names follow the struct nesting:
//
//	BEK_SERVER_PORT=9090
//	BEK_REPORT_START_ROW=6
//	BEK_SECURITY_RATE_LIMIT_RPS=20
//	BEK_LOGGING_LEVEL=debug
//
// Directories in PathsConfig are relative to the executable so binaries
// behave the same wherever they are started from.
package config
