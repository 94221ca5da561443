package shopify

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

var (
	// ErrNotConfigured is matched by every ConfigError.
	ErrNotConfigured = errors.New("shopify is not configured")
	ErrNotFound      = errors.New("not found")
)

// ConfigError reports a missing store setting. It is raised when a call is
// attempted, not when the client is built.
type ConfigError struct {
	Setting string
	Message string
}

func (e *ConfigError) Error() string { return e.Message }

func (e *ConfigError) Is(target error) bool { return target == ErrNotConfigured }

// RemoteError is any failure talking to the Storefront API. Message holds
// the text Shopify returned, when there was one.
type RemoteError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	b.WriteString("shopify ")
	b.WriteString(e.Op)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RemoteError) Unwrap() error { return e.Err }

// UserErrors are validation failures returned by a mutation.
type UserErrors struct {
	Errors []UserError
}

func (e *UserErrors) Error() string {
	return strings.Join(e.Messages(), ", ")
}

func (e *UserErrors) Messages() []string {
	out := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		out = append(out, ue.Message)
	}
	return out
}
