// Package config loads typed configuration structs from environment
// variables, with optional .env support for local development.
//
// Configuration is declared as plain structs with `env` tags and loaded once
// per type:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
// Packages that need configuration define their own Config struct next to
// the code that consumes it; this package only does the parsing.
package config
