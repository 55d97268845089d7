// Package llm provides an OpenAI-compatible chat client (OpenRouter by
// default) for subtitle translation and transcript summaries.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: free-text completion, used for summaries.
// Client.CompleteJSON: send system/user prompts, receive a JSON response.
// Client.HealthCheck: verify API key and model availability.
// NewTranslator: adapt a client to translation.Translator.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). Context cancellation aborts retries immediately.
//
// The Translator leaves retries to the translation orchestrator and only
// classifies failures: retryable conditions become translation.Transient,
// everything else translation.Permanent. A response that is not a JSON array
// of strings is transient.
package llm
