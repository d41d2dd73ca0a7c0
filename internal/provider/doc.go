// Package provider implements the language-model backends behind a single
// generate/health contract.
//
// Three backends are supported, each with its own wire protocol:
//
//   - Ollama: local inference server, chat endpoint with native multi-turn
//     messages. Free, needs `ollama serve` running.
//   - Hugging Face: hosted Inference API. No chat primitive, so history is
//     flattened into a labeled text prompt.
//   - Google Gemini: hosted generateContent API with native role-mapped
//     history and a system instruction field.
//
// All backends honor a per-call model override without mutating their
// configured model, trim generated text, and report failures through the
// shared error types in errors.go: UnavailableError for transport and
// timeout conditions, ModelNotFoundError when the backend rejects the model
// name, BackendError for everything else the backend reports.
//
// The Registry owns the single active Provider per process. Construction is
// lazy, guarded against concurrent first callers, and validates credentials
// up front (returning ConfigError rather than letting the first generation
// fail with an opaque 401).
package provider
