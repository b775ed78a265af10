// Package natstest runs an in-process NATS server with JetStream for tests.
package natstest

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/robwizzie/FantasyFlicks/go/internal/natsutil"
)

// RunServer starts an embedded JetStream server on a random port and shuts
// it down when the test ends.
func RunServer(t testing.TB) *server.Server {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Port:      -1,
		JetStream: true,
		NoLog:     true,
		NoSigs:    true,
		StoreDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("failed to create embedded NATS server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		t.Fatal("embedded NATS server failed to start within timeout")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

// Config returns a natsutil config pointing at ns with in-memory storage.
func Config(ns *server.Server) natsutil.Config {
	cfg := natsutil.DefaultConfig()
	cfg.URL = ns.ClientURL()
	cfg.MemoryStorage = true
	cfg.MaxReconnects = 0
	return cfg
}
