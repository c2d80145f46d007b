package cart

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/storefront/pkg/apiclient"
)

var (
	// ErrItemNotFound is returned when a mutation names an id absent from
	// the current snapshot. No network call is made.
	ErrItemNotFound = errors.New("cart.item_not_found")

	// ErrInvalidQuantity is returned by Add for quantities below 1.
	ErrInvalidQuantity = errors.New("cart.invalid_quantity")

	// ErrClosed is returned by mutations after Close.
	ErrClosed = errors.New("cart.closed")

	// ErrNilDependency is raised by New for a missing collaborator.
	ErrNilDependency = errors.New("cart.nil_dependency")
)

// Op names a cart mutation.
type Op string

const (
	OpAdd         Op = "add"
	OpSetQuantity Op = "set_quantity"
	OpSetNote     Op = "set_note"
	OpRemove      Op = "remove"
	OpClear       Op = "clear"
	OpLoad        Op = "load"
)

// MutationError reports a write-through that failed. By the time it is
// returned the cache has already been reloaded from the server, or the
// reload failure has been logged.
type MutationError struct {
	Op     Op
	ItemID string
	Err    error
}

func (e *MutationError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("cart: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cart: %s %s: %v", e.Op, e.ItemID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

var opNotices = map[Op]string{
	OpAdd:         "We couldn't add that item to your cart.",
	OpSetQuantity: "We couldn't update the quantity. Your cart has been refreshed.",
	OpSetNote:     "We couldn't save your note. Your cart has been refreshed.",
	OpRemove:      "We couldn't remove that item. Your cart has been refreshed.",
	OpClear:       "We couldn't empty your cart. Your cart has been refreshed.",
	OpLoad:        "We couldn't load your cart.",
}

// Notice is the text a cart surface shows for the failure. Connectivity,
// authorization and validation failures keep their specific notices.
func (e *MutationError) Notice() string {
	switch apiclient.Classify(e.Err) {
	case apiclient.KindConnectivity, apiclient.KindAuthorization, apiclient.KindValidation, apiclient.KindAuthentication:
		return apiclient.UserMessage(e.Err)
	}
	if n, ok := opNotices[e.Op]; ok {
		return n
	}
	return apiclient.NoticeServerFailure
}
