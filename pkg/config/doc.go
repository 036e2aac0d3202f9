// Package config loads application configuration from environment variables
// into tagged structs, with an optional .env file for local development. Each
// configuration type is parsed once per process and cached, so packages can
// call Load for the same type independently without re-reading the
// environment.
package config
