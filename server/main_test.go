package main

import (
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// Connection goroutines register and drop clients while the message loop
// iterates the registry; none of that may trip the race detector or lose
// entries.
func TestClientRegistryConcurrent(t *testing.T) {
	const (
		workers    = 8
		iterations = 100
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				conn := &websocket.Conn{}
				id := addClient(conn)

				if got := clients()[conn]; got != id {
					t.Errorf("got = %v, expected = %v\n", got, id)
				}

				removeClient(conn)
			}
		}()
	}
	wg.Wait()

	if got := clients(); len(got) != 0 {
		t.Errorf("registry not empty after all clients left: %v\n", got)
	}
}
