// Package outbox is a durable append-only store for outgoing
// confirmation mail. Appends are fsynced so a queued code survives a
// crash; a mail worker drains Pending and compacts with MarkSent.
package outbox

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openreviews/review-square/pkg/logger"
)

// Entry is one queued mail.
type Entry struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	QueuedAt  time.Time `json:"queued_at"`
}

// Outbox manages the JSON-lines outbox file.
type Outbox struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

func New(filePath string) (*Outbox, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Outbox{
		filePath: filePath,
		file:     file,
	}, nil
}

// Append queues one mail and syncs it to disk before returning.
func (o *Outbox) Append(entry Entry) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		logger.Log.Error("Outbox: failed to marshal entry",
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
		return err
	}

	if _, err := o.file.WriteString(string(data) + "\n"); err != nil {
		logger.Log.Error("Outbox: failed to write entry",
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
		return err
	}

	if err := o.file.Sync(); err != nil {
		logger.Log.Error("Outbox: failed to sync to disk",
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Outbox: entry queued",
		zap.String("entry_id", entry.ID),
		zap.String("recipient", entry.Recipient),
	)

	return nil
}

// Pending returns all queued entries.
func (o *Outbox) Pending() ([]Entry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.readAllUnsafe()
}

// MarkSent compacts the outbox, dropping entries whose ids were
// delivered.
func (o *Outbox) MarkSent(sentIDs []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	allEntries, err := o.readAllUnsafe()
	if err != nil {
		return err
	}

	sent := make(map[string]bool, len(sentIDs))
	for _, id := range sentIDs {
		sent[id] = true
	}

	var remaining []Entry
	for _, entry := range allEntries {
		if !sent[entry.ID] {
			remaining = append(remaining, entry)
		}
	}

	// Write the replacement file completely before touching the live
	// handle; a failed rewrite must not lose queued codes
	tempFile := o.filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	for _, entry := range remaining {
		data, err := json.Marshal(entry)
		if err != nil {
			f.Close()
			os.Remove(tempFile)
			return err
		}
		if _, err := f.WriteString(string(data) + "\n"); err != nil {
			f.Close()
			os.Remove(tempFile)
			return err
		}
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	if err := o.file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	// Atomic swap, then reopen in append mode
	if err := os.Rename(tempFile, o.filePath); err != nil {
		if reopened, openErr := os.OpenFile(o.filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644); openErr == nil {
			o.file = reopened
		}
		return err
	}

	newFile, err := os.OpenFile(o.filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	o.file = newFile

	logger.Log.Info("Outbox: compacted",
		zap.Int("delivered", len(allEntries)-len(remaining)),
		zap.Int("remaining", len(remaining)),
	)

	return nil
}

func (o *Outbox) readAllUnsafe() ([]Entry, error) {
	file, err := os.Open(o.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}

func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.file.Close()
}
