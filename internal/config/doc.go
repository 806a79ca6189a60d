// Package config loads, normalizes, and validates reelgen configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and ELEVENLABS_API_KEY. The Config type centralizes every
// knob the pipeline and CLI need so stage code receives sanitized paths and
// clear validation errors from one place.
package config
