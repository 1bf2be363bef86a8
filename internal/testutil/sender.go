package testutil

import (
	"context"
	"sync"

	"github.com/openreviews/review-square/internal/notify"
)

// RecordingSender is a notify.Sender that captures dispatched messages
// in memory so tests can read the confirmation codes back.
type RecordingSender struct {
	mu       sync.Mutex
	Messages []notify.Message
	Err      error // when set, SendConfirmationCode fails with it
}

func NewRecordingSender() *RecordingSender {
	return &RecordingSender{}
}

func (s *RecordingSender) SendConfirmationCode(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Messages = append(s.Messages, msg)
	return nil
}

func (s *RecordingSender) Close() error {
	return nil
}

// LastCode returns the code from the most recent message, or "" when
// nothing was sent.
func (s *RecordingSender) LastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Messages) == 0 {
		return ""
	}
	return s.Messages[len(s.Messages)-1].Code
}
