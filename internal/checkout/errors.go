package checkout

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

var ErrEmptyCart = errors.New("cart is empty")

const (
	NoticeEmptyCart   = "Add something to the cart first."
	NoticeRedirect    = "Redirecting you to Shopify checkout..."
	NoticeUnreachable = "Unable to reach the store. Please try again."
	noticeGeneric     = "Unable to start checkout. Please try again."
)

type BlockReason int

const (
	NotForSale BlockReason = iota + 1
	Oversold
)

// BlockedError names the first cart item whose cached availability refuses
// the requested quantity.
type BlockedError struct {
	ItemID    string
	Name      string
	Reason    BlockReason
	Requested int
	Available int
}

func (e *BlockedError) Error() string {
	switch {
	case e.Reason == NotForSale:
		return fmt.Sprintf("%s is not available yet. Remove it to continue.", e.Name)
	case e.Available > 0:
		return fmt.Sprintf("Only %d units of %s are available.", e.Available, e.Name)
	default:
		return fmt.Sprintf("%s is no longer available.", e.Name)
	}
}

// MissingVariantError is raised before any network call when an item has no
// remote variant mapping.
type MissingVariantError struct {
	ItemID string
	Name   string
}

func (e *MissingVariantError) Error() string {
	return fmt.Sprintf("Missing Shopify variant mapping for %q.", e.Name)
}

// ValidationError carries the user errors the store returned for the cart.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

type RemoteError struct {
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = NoticeUnreachable
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteError) Unwrap() error { return e.Err }

type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string { return e.Message }

func (e *ConfigError) Unwrap() error { return e.Err }

// Notice renders err as the message shown to the shopper.
func Notice(err error) string {
	if err == nil {
		return NoticeRedirect
	}
	if errors.Is(err, ErrEmptyCart) {
		return NoticeEmptyCart
	}
	if e, ok := errors.Into[*BlockedError](err); ok {
		return e.Error()
	}
	if e, ok := errors.Into[*MissingVariantError](err); ok {
		return e.Error()
	}
	if e, ok := errors.Into[*ValidationError](err); ok {
		if len(e.Messages) == 0 {
			return noticeGeneric
		}
		return e.Error()
	}
	if e, ok := errors.Into[*ConfigError](err); ok {
		return e.Message
	}
	if e, ok := errors.Into[*RemoteError](err); ok {
		if e.Message != "" {
			return e.Message
		}
		return NoticeUnreachable
	}
	return noticeGeneric
}
