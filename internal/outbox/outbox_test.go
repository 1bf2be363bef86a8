package outbox

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openreviews/review-square/pkg/logger"
)

func TestOutbox_AppendAfterCompaction(t *testing.T) {
	// Initialize logger for outbox operations
	logger.Init(false)

	// Setup: Create temp outbox file
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test_outbox.log")

	box, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create outbox: %v", err)
	}
	defer box.Close()

	// Step 1: Queue 3 mails
	entries := []Entry{
		{ID: "mail1", Recipient: "a@example.com", Subject: "code", Body: "111", QueuedAt: time.Now()},
		{ID: "mail2", Recipient: "b@example.com", Subject: "code", Body: "222", QueuedAt: time.Now()},
		{ID: "mail3", Recipient: "c@example.com", Subject: "code", Body: "333", QueuedAt: time.Now()},
	}

	for _, entry := range entries {
		if err := box.Append(entry); err != nil {
			t.Fatalf("Failed to append entry: %v", err)
		}
	}

	// Verify: outbox should hold 3 entries
	pending, err := box.Pending()
	if err != nil {
		t.Fatalf("Failed to read outbox: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(pending))
	}

	// Step 2: Simulate mail worker - mark first 2 as delivered
	if err := box.MarkSent([]string{"mail1", "mail2"}); err != nil {
		t.Fatalf("MarkSent failed: %v", err)
	}

	// Verify: outbox should hold 1 entry
	remaining, err := box.Pending()
	if err != nil {
		t.Fatalf("Failed to read outbox after compaction: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("Expected 1 entry after compaction, got %d", len(remaining))
	}
	if remaining[0].ID != "mail3" {
		t.Fatalf("Expected mail3, got %s", remaining[0].ID)
	}

	// Step 3: Append NEW mails after compaction; the reopened file
	// handle must still be in append mode
	newEntries := []Entry{
		{ID: "mail4", Recipient: "d@example.com", Subject: "code", Body: "444", QueuedAt: time.Now()},
		{ID: "mail5", Recipient: "e@example.com", Subject: "code", Body: "555", QueuedAt: time.Now()},
	}

	for _, entry := range newEntries {
		if err := box.Append(entry); err != nil {
			t.Fatalf("Failed to append NEW entry after compaction: %v", err)
		}
	}

	// Verify: outbox should hold mail3, mail4, mail5 in order
	final, err := box.Pending()
	if err != nil {
		t.Fatalf("Failed to read outbox after new appends: %v", err)
	}
	if len(final) != 3 {
		t.Fatalf("Expected 3 entries after new appends, got %d", len(final))
	}

	expectedIDs := []string{"mail3", "mail4", "mail5"}
	for i, entry := range final {
		if entry.ID != expectedIDs[i] {
			t.Fatalf("Expected %s at index %d, got %s", expectedIDs[i], i, entry.ID)
		}
	}
}

func TestOutbox_FailedCompactionKeepsEntries(t *testing.T) {
	logger.Init(false)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test_failed.log")

	box, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create outbox: %v", err)
	}

	// Queue 2 mails
	entries := []Entry{
		{ID: "mail1", Recipient: "a@example.com", Subject: "code", Body: "111", QueuedAt: time.Now()},
		{ID: "mail2", Recipient: "b@example.com", Subject: "code", Body: "222", QueuedAt: time.Now()},
	}
	for _, entry := range entries {
		if err := box.Append(entry); err != nil {
			t.Fatalf("Failed to append entry: %v", err)
		}
	}

	// Break the live handle so the swap step of compaction fails
	if err := box.Close(); err != nil {
		t.Fatalf("Failed to close outbox: %v", err)
	}

	// MarkSent must report the failure instead of swallowing it
	if err := box.MarkSent([]string{"mail1"}); err == nil {
		t.Fatal("Expected MarkSent to fail on a closed outbox")
	}

	// Append must fail the same way
	if err := box.Append(Entry{ID: "mail3", Recipient: "c@example.com", QueuedAt: time.Now()}); err == nil {
		t.Fatal("Expected Append to fail on a closed outbox")
	}

	// No half-written replacement file may remain
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("Expected replacement file to be cleaned up, stat returned %v", err)
	}

	// Reopen: every queued mail is still there
	reopened, err := New(path)
	if err != nil {
		t.Fatalf("Failed to reopen outbox: %v", err)
	}
	defer reopened.Close()

	pending, err := reopened.Pending()
	if err != nil {
		t.Fatalf("Failed to read outbox: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 entries to survive the failed compaction, got %d", len(pending))
	}
	for i, want := range []string{"mail1", "mail2"} {
		if pending[i].ID != want {
			t.Fatalf("Expected %s at index %d, got %s", want, i, pending[i].ID)
		}
	}
}

func TestOutbox_MultipleCompactions(t *testing.T) {
	logger.Init(false)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test_multi.log")

	box, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create outbox: %v", err)
	}
	defer box.Close()

	// Queue 5 mails
	for i := 1; i <= 5; i++ {
		entry := Entry{
			ID:        fmt.Sprintf("mail%d", i),
			Recipient: fmt.Sprintf("user%d@example.com", i),
			Subject:   "code",
			Body:      fmt.Sprintf("%d%d%d", i, i, i),
			QueuedAt:  time.Now(),
		}
		if err := box.Append(entry); err != nil {
			t.Fatalf("Failed to append: %v", err)
		}
	}

	// Compaction 1: drop first 2
	box.MarkSent([]string{"mail1", "mail2"})

	// Queue one more
	box.Append(Entry{ID: "mail6", Recipient: "f@example.com", Subject: "code", Body: "666", QueuedAt: time.Now()})

	// Compaction 2: drop next 2
	box.MarkSent([]string{"mail3", "mail4"})

	// Queue another
	box.Append(Entry{ID: "mail7", Recipient: "g@example.com", Subject: "code", Body: "777", QueuedAt: time.Now()})

	// Final check
	final, _ := box.Pending()
	if len(final) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(final))
	}

	expectedIDs := []string{"mail5", "mail6", "mail7"}
	for i, entry := range final {
		if entry.ID != expectedIDs[i] {
			t.Fatalf("Expected %s, got %s", expectedIDs[i], entry.ID)
		}
	}
}
