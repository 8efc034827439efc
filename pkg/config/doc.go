// Package config loads typed configuration from the environment.
//
// It wraps github.com/joho/godotenv (optional .env file) and
// github.com/caarlos0/env/v11 (struct tag parsing). Every package that needs
// settings declares its own Config struct with `env` tags; the binary composes
// them into one value at startup and hands the pieces to constructors, so no
// component reads the environment on its own.
package config
