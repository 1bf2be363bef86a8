package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/openreviews/review-square/internal/outbox"
)

// OutboxSender queues confirmation mail in the local durable outbox.
// This is the development backend; production publishes to Redis.
type OutboxSender struct {
	outbox *outbox.Outbox
}

func NewOutboxSender(box *outbox.Outbox) *OutboxSender {
	return &OutboxSender{outbox: box}
}

func (s *OutboxSender) SendConfirmationCode(_ context.Context, msg Message) error {
	return s.outbox.Append(outbox.Entry{
		ID:        uuid.New().String(),
		Recipient: msg.Email,
		Subject:   fmt.Sprintf("Confirmation code for %s", msg.Username),
		Body:      msg.Code,
		QueuedAt:  msg.IssuedAt,
	})
}

func (s *OutboxSender) Close() error {
	return s.outbox.Close()
}
