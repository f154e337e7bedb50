// Package config loads, normalizes, and validates mediaflow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads secrets from an optional .env file next
// to the configuration, and honours environment fallbacks such as
// OPENROUTER_API_KEY. The Config type centralizes every knob the handler
// families and CLI need, so work/log/state directories and external service
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
