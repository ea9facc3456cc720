package models

import (
	"errors"
	"fmt"
)

// ErrNoUsableVideo is returned when every supplied video source failed to
// decode. It is fatal to the request.
var ErrNoUsableVideo = errors.New("no valid video clips could be loaded")

// FetchError reports a failed download of a source locator. A non-2xx status
// and a transport error are the same failure class.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("download failed for %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("download failed for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// EncodeError reports a failed external encoder invocation, carrying the
// encoder's own error output.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding failed: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// DeliveryError reports that a finished output could not be handed to the
// caller.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies a pipeline error for the transport layer
func ErrorKind(err error) string {
	var fetchErr *FetchError
	var encodeErr *EncodeError
	var deliveryErr *DeliveryError

	switch {
	case errors.Is(err, ErrNoUsableVideo):
		return "no_usable_video"
	case errors.As(err, &fetchErr):
		return "fetch_failed"
	case errors.As(err, &encodeErr):
		return "encode_failed"
	case errors.As(err, &deliveryErr):
		return "delivery_failed"
	default:
		return "internal"
	}
}
