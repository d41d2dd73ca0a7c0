package provider

import "fmt"

// ConfigError reports an invalid provider configuration, typically a
// missing credential or an unknown backend name. It is fatal at
// construction time and never retryable.
type ConfigError struct {
	Provider Name
	Reason   string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

// UnavailableError reports a transient transport condition: the backend is
// unreachable, refused the connection, rejected the credential, or timed
// out. Callers may retry after a delay; the provider never retries.
type UnavailableError struct {
	Provider Name
	Reason   string
}

func (e *UnavailableError) Error() string {
	return e.Reason
}

// ModelNotFoundError reports that the backend does not know the requested
// model. It points at a deployment problem, not a caller mistake.
type ModelNotFoundError struct {
	Provider Name
	Model    string
	Reason   string
}

func (e *ModelNotFoundError) Error() string {
	return e.Reason
}

// BackendError is the catch-all for other backend-reported failures, such
// as unexpected status codes or malformed response bodies.
type BackendError struct {
	Provider Name
	Status   int
	Detail   string
}

func (e *BackendError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("erro do provider %s: HTTP %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("erro do provider %s: HTTP %d: %s", e.Provider, e.Status, e.Detail)
}
