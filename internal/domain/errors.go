package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrRateLimited      = errors.New("rate limited")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidOrder     = errors.New("invalid order parameters")
	ErrSigningFailed    = errors.New("signing failed")
	ErrWSDisconnect     = errors.New("websocket disconnected")
	ErrMalformedMarket  = errors.New("malformed market record")
	ErrNotEligible      = errors.New("market not eligible")
	ErrBelowMinNotional = errors.New("leg notional below minimum")
	ErrDuplicateMarket  = errors.New("market already executed this session")
	ErrStalePrices      = errors.New("book prices drifted from quote")
)

// TransportError marks a network or auth failure talking to the venue, as
// opposed to a venue-level order rejection. Baskets that hit a transport
// error stay eligible for retry on a later cycle.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
