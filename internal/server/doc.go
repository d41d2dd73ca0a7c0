// Package server provides the HTTP server implementation for the chatbot API.
//
// The server wires the conversation components behind a Chi-based router
// with middleware for CORS, request logging and panic recovery. It does no
// business logic of its own: each handler validates its input, delegates
// to an injected component and maps the outcome onto the wire format.
//
// # API Endpoints
//
//   - POST /chat: one reactive conversation turn (history-aware)
//   - POST /chat/proactive: persona-voiced opener, no history
//   - GET /chat/{sessionID}/history: stored window of a session
//   - DELETE /chat/{sessionID}: clear a session
//   - GET /personas, GET /target-profiles: persona catalog listings
//   - GET /health: provider status (healthy / degraded / unhealthy)
//   - POST /rag/search: raw vector search over the knowledge base
//   - GET /events: real-time activity stream via SSE
//   - GET /*: static UI files, when a directory is configured
//
// # Error Contract
//
// Every error response carries the same flat body, a machine-readable
// kind plus a human-readable message:
//
//	{"error": "provider_unavailable", "message": "..."}
//
// Provider failures map one-to-one onto kinds: unavailability and
// unknown models answer 503, backend failures answer 500 with kind
// llm_error, and anything unexpected answers 500 with kind
// internal_error and a generic message, keeping internals out of
// responses.
//
// # Event Streaming
//
// GET /events consumes the activity bus (chat turns, proactive sends,
// session clears, knowledge-base searches) and forwards each event as
// an SSE frame named after its type, with periodic heartbeat comments
// to keep intermediaries from closing the stream.
//
// # Usage Example
//
//	srv := server.New(cfg, registry, store, personas, index)
//
//	go func() {
//		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
//			log.Fatal(err)
//		}
//	}()
//
//	// ... on shutdown signal:
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	srv.Shutdown(ctx)
package server
