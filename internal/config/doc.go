// Package config handles configuration loading for coinboard.
//
// Configuration comes from three layers, later layers winning:
//   - an optional YAML file, with ${VAR} environment variable interpolation
//   - a .env file in the working directory, if present
//   - the recognized environment variables STORAGE_URL, PROVIDER_URL and PORT
package config
