package service

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	q "github.com/iliyamo/neustalgic-grooves/internal/queue"
)

// silentBroker accepts TCP connections and never answers the AMQP
// handshake.
func silentBroker(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestPublishGivesUpWithContext(t *testing.T) {
	p := NewPublisher(silentBroker(t))
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.PublishPaymentReconciled(ctx, q.PaymentReconciledEvent{EventID: "evt_1"})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected an error from a broker that never answers")
	}
	if elapsed > 2*time.Second {
		t.Fatalf("publish took %s, should give up with the context", elapsed)
	}
}

func TestPublishCapsWaitWithoutDeadline(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the publish cap")
	}
	p := NewPublisher(silentBroker(t))

	start := time.Now()
	err := p.PublishPaymentReconciled(context.Background(), q.PaymentReconciledEvent{EventID: "evt_2"})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected an error from a broker that never answers")
	}
	if elapsed > maxPublishTime+2*time.Second {
		t.Fatalf("publish took %s, cap is %s", elapsed, maxPublishTime)
	}
}

func TestPublishWithExpiredContext(t *testing.T) {
	p := NewPublisher(silentBroker(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.PublishPaymentReconciled(ctx, q.PaymentReconciledEvent{EventID: "evt_3"}); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
