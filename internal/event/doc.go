/*
Package event provides the pub/sub activity bus for the chatbot service.

Handlers publish what happened (a chat turn, a proactive message, a
cleared session, a knowledge-base search) and consumers react without
direct dependencies between the two sides.

# Architecture

The bus delivers every event on two paths. Direct listeners registered
with Subscribe/SubscribeAll are called in process and keep the typed
Data value. In parallel each event is marshaled to JSON and pushed
through a watermill gochannel; Stream consumes that channel, which is
how GET /events turns bus activity into server-sent events.

# Event Types

  - chat.message: an assistant reply was generated and stored
  - chat.proactive: a persona-driven opening message was generated
  - chat.session_cleared: a session's history was deleted
  - rag.search: the knowledge base was queried

# Basic Usage

Publishing events:

	// Asynchronous publishing (non-blocking)
	event.Publish(event.Event{
		Type: event.ChatMessage,
		Data: event.ChatMessageData{
			SessionID: sessionID,
			Provider:  string(prov.Name()),
			Model:     model,
		},
	})

	// Synchronous publishing (blocking until all listeners complete)
	event.PublishSync(event.Event{
		Type: event.ChatSessionCleared,
		Data: event.SessionClearedData{SessionID: sessionID},
	})

Consuming the stream:

	events, err := event.Stream(ctx)
	if err != nil {
		return err
	}
	for ev := range events {
		// ev.Data is the JSON-decoded form here
	}

Subscribing in process:

	unsubscribe := event.Subscribe(event.RAGSearch, func(e event.Event) {
		data := e.Data.(event.RAGSearchData)
		log.Debug().Str("query", data.Query).Msg("search observed")
	})
	defer unsubscribe()

# Listener Safety

PublishSync calls listeners in the publisher's goroutine. Listeners
must complete quickly, must not publish re-entrantly and must not
acquire locks the publisher might hold.

# Testing

Reset clears the global bus between tests. NewBus creates an isolated
instance when a test should not touch global state.
*/
package event
