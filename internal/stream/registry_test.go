package stream

import (
	"strconv"
	"sync"
	"testing"

	"github.com/coder/websocket"
)

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	conn := &websocket.Conn{}

	reg.Register("user123", "tab-1", conn)

	if active := reg.Active("user123", "tab-1"); active != conn {
		t.Errorf("Expected connection %v, got %v", conn, active)
	}
	if reg.Count() != 1 {
		t.Errorf("Expected 1 stream, got %d", reg.Count())
	}
}

func TestRegistry_UnregisterOnlyCurrent(t *testing.T) {
	reg := NewRegistry()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	reg.Register("user123", "tab-1", conn1)
	reg.Register("user123", "tab-2", conn2)

	// A stale handle for another tab must not remove tab-2.
	reg.Unregister("user123", "tab-2", conn1)
	if active := reg.Active("user123", "tab-2"); active != conn2 {
		t.Errorf("Expected connection %v, got %v", conn2, active)
	}

	reg.Unregister("user123", "tab-1", conn1)
	reg.Unregister("user123", "tab-2", conn2)
	if reg.Count() != 0 {
		t.Errorf("Expected no streams, got %d", reg.Count())
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			reg.Register("concurrentUser", "tab-"+strconv.Itoa(i), &websocket.Conn{})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			reg.Active("concurrentUser", "tab-"+strconv.Itoa(i))
		}
	}()

	wg.Wait()
	if reg.Count() != 1000 {
		t.Errorf("Expected 1000 streams, got %d", reg.Count())
	}
}
