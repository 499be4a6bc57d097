package server

import (
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestServesAndDrains(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	addr := freeAddr(t)
	gs := NewGracefulServer(addr, handler, nil, WithShutdownTimeout(2*time.Second))

	done := make(chan error, 1)
	go func() { done <- gs.Start() }()

	// Wait for the listener to come up.
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(fmt.Sprintf("http://%s/", addr))
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	if err := gs.Shutdown(); err != nil {
		t.Errorf("Shutdown: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v after graceful shutdown", err)
		}
	case <-time.After(3 * time.Second):
		t.Error("Start did not return after shutdown")
	}
}

func TestShutdownIdempotent(t *testing.T) {
	gs := NewGracefulServer(freeAddr(t), http.NotFoundHandler(), nil)
	go gs.Start()
	time.Sleep(50 * time.Millisecond)

	if err := gs.Shutdown(); err != nil {
		t.Fatalf("first Shutdown: %v", err)
	}
	if err := gs.Shutdown(); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}

func TestStartReportsListenError(t *testing.T) {
	addr := freeAddr(t)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		t.Fatalf("occupy port: %v", err)
	}
	defer l.Close()

	gs := NewGracefulServer(addr, http.NotFoundHandler(), nil)
	done := make(chan error, 1)
	go func() { done <- gs.Start() }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected bind error, got nil")
		}
	case <-time.After(2 * time.Second):
		t.Error("Start did not fail on an occupied port")
	}
}
