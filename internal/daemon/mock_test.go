package daemon

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// mockDaemon answers commands with canned responses and hands subscribed
// connections to the test so it can push events.
type mockDaemon struct {
	path string
	ln   net.Listener

	mu        sync.Mutex
	responses map[string]Response
	commands  []Command
	hang      map[string]bool

	subscribers chan net.Conn
}

func newMockDaemon(t *testing.T, responses map[string]Response) *mockDaemon {
	t.Helper()

	// Unix socket paths are length limited, so avoid the long t.TempDir().
	dir, err := os.MkdirTemp("", "wpm")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	sockPath := filepath.Join(dir, "d.sock")

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	d := &mockDaemon{
		path:        sockPath,
		ln:          ln,
		responses:   responses,
		subscribers: make(chan net.Conn, 4),
	}
	go d.serve()

	t.Cleanup(func() {
		ln.Close()
		os.RemoveAll(dir)
	})
	return d
}

func (d *mockDaemon) serve() {
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			return
		}
		go d.handle(conn)
	}
}

func (d *mockDaemon) handle(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var cmd Command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			conn.Close()
			return
		}

		d.mu.Lock()
		d.commands = append(d.commands, cmd)
		resp, ok := d.responses[cmd.Cmd]
		hang := d.hang[cmd.Cmd]
		d.mu.Unlock()
		if hang {
			continue
		}
		if !ok {
			resp = Response{OK: true}
		}

		data, _ := json.Marshal(resp)
		conn.Write(append(data, '\n'))

		if cmd.Cmd == "subscribe" {
			d.subscribers <- conn
			return
		}
	}
	conn.Close()
}

// hangOn makes the daemon read cmd without ever answering it.
func (d *mockDaemon) hangOn(cmd string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hang == nil {
		d.hang = make(map[string]bool)
	}
	d.hang[cmd] = true
}

func (d *mockDaemon) sent() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var names []string
	for _, c := range d.commands {
		names = append(names, c.Cmd)
	}
	return names
}

func emit(t *testing.T, conn net.Conn, ev Event) {
	t.Helper()
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		t.Fatalf("write event: %v", err)
	}
}
