package notify

import "errors"

var (
	ErrInvalidConfig    = errors.New("notify: invalid config")
	ErrDeliveryFailed   = errors.New("notify: delivery failed")
	ErrRecipientUnknown = errors.New("notify: recipient unknown")
)
