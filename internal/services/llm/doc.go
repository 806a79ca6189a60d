// Package llm provides an OpenRouter-compatible chat client used as the
// alternative script provider.
//
// Client.Complete sends one user prompt and returns the reply text.
// Client.HealthCheck verifies the key and model with a tiny JSON round trip
// and backs `reelgen doctor`.
//
// Requests retry on HTTP 408/429/5xx, network timeouts and empty completions
// with exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately.
package llm
