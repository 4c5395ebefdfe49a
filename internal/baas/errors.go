package baas

import "fmt"

// Kind classifies a backend failure. The caches and services upstream only
// log kinds; they never branch on them beyond auth-refresh handling.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindServer     Kind = "server"
)

// Error is a failure reported by the backend-as-a-service.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("baas: %s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("baas: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// classify maps an HTTP status to an error kind.
func classify(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindServer
	}
}
