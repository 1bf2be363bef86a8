// Package notify dispatches confirmation codes out of band. Delivery is
// synchronous within the request; failures surface to the caller and are
// never retried here.
package notify

import (
	"context"
	"time"
)

// Message carries one confirmation code to a recipient.
type Message struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
}

// Sender delivers confirmation codes.
type Sender interface {
	SendConfirmationCode(ctx context.Context, msg Message) error
	Close() error
}
