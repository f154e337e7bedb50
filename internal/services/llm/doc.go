// Package llm provides an OpenRouter-compatible chat completion client.
//
// The translation family uses it to translate text between languages: the
// client sends a system prompt describing the task plus the source text and
// expects a JSON object back.
//
// # Configuration
//
// Requires api_key and model; base_url, referer, title, and timeout are
// optional. Without an API key every call fails fast with a configuration
// error instead of reaching the network.
//
// # Retry Behaviour
//
// Requests are retried on HTTP 408/429/5xx, network timeouts, and empty
// completions, with exponential backoff (base 1s, max 10s, up to 5 attempts
// by default). Retry-After headers are honoured. Context cancellation aborts
// retries immediately.
package llm
