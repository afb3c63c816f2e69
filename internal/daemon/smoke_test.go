package daemon

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"
)

// TestLiveDaemonSession connects to a running daemon, checks permissions and
// records for a few seconds. Skipped if the daemon socket doesn't exist.
func TestLiveDaemonSession(t *testing.T) {
	sockPath := DefaultSocketPath()
	if _, err := os.Stat(sockPath); os.IsNotExist(err) {
		t.Skip("daemon not running (no socket at", sockPath, ")")
	}

	tr := NewTranscriber(sockPath, "en_US", "", nil)
	ctx := context.Background()

	status, err := tr.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	fmt.Printf("Status: ok=%v recording=%v device=%q\n", status.OK, status.Recording, status.Device)

	access, err := tr.RequestAccess(ctx)
	if err != nil {
		t.Fatalf("permissions: %v", err)
	}
	fmt.Printf("Access: microphone=%v speech=%v\n", access.Microphone, access.Speech)
	if !access.Granted() {
		t.Skip("daemon lacks microphone or speech access")
	}

	var mu sync.Mutex
	updates := 0
	var last string
	onUpdate := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		updates++
		last = s
	}
	if err := tr.Start(ctx, onUpdate, func(err error) {
		fmt.Printf("error: %v\n", err)
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	fmt.Println("Recording for 3 seconds...")
	time.Sleep(3 * time.Second)

	if err := tr.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	fmt.Printf("Updates: %d, last transcript: %q\n", updates, last)
}
