package relay_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pqchat/internal/domain"
	"pqchat/internal/relay"
)

func recv(t *testing.T, tr domain.Transport) domain.WireMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := tr.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	return msg
}

func TestLoopback_DirectoryCopiesKeys(t *testing.T) {
	ctx := context.Background()
	lb := relay.NewLoopback()
	keys := domain.PublicKeys{UserID: "alice", KEM: []byte{1, 2, 3}, Signing: []byte{4, 5, 6}}
	if err := lb.Publish(ctx, keys); err != nil {
		t.Fatal(err)
	}
	keys.KEM[0] = 9

	kem, err := lb.FetchKEMKey(ctx, "alice")
	if err != nil || kem[0] != 1 {
		t.Fatalf("FetchKEMKey = %v, %v", kem, err)
	}
	if _, err := lb.FetchSigningKey(ctx, "bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("FetchSigningKey(bob) = %v, want ErrNotFound", err)
	}
	if err := lb.Publish(ctx, domain.PublicKeys{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Publish(empty) = %v, want ErrValidation", err)
	}
}

func TestLoopback_RoutesVerbatimAndBroadcastsPresence(t *testing.T) {
	ctx := context.Background()
	lb := relay.NewLoopback()
	alice := lb.Connect("alice")
	bob := lb.Connect("bob")

	st := recv(t, alice)
	if st.Type != domain.TypeStatusUpdate || st.PeerID != "bob" || st.Online == nil || !*st.Online {
		t.Fatalf("status = %+v", st)
	}
	if on, _ := lb.Online(ctx, "alice", "bob"); !on {
		t.Fatal("bob should be online")
	}

	// The relay does not rewrite the sender field.
	msg := domain.WireMessage{Type: domain.TypeChat, From: "mallory", To: "bob", Signature: "c2ln"}
	if err := alice.Send(ctx, msg); err != nil {
		t.Fatal(err)
	}
	if got := recv(t, bob); got.From != "mallory" || got.Signature != "c2ln" {
		t.Fatalf("got %+v", got)
	}

	if err := alice.Send(ctx, domain.WireMessage{Type: domain.TypeChat}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Send without recipient = %v", err)
	}
	// Offline recipients are dropped silently.
	if err := alice.Send(ctx, domain.WireMessage{Type: domain.TypeChat, To: "carol"}); err != nil {
		t.Fatalf("Send to offline = %v", err)
	}

	if err := bob.Close(); err != nil {
		t.Fatal(err)
	}
	st = recv(t, alice)
	if st.PeerID != "bob" || st.Online == nil || *st.Online {
		t.Fatalf("status after close = %+v", st)
	}
	if on, _ := lb.Online(ctx, "alice", "bob"); on {
		t.Fatal("bob should be offline")
	}
	if err := bob.Send(ctx, msg); !errors.Is(err, relay.ErrClosed) {
		t.Fatalf("Send after Close = %v, want ErrClosed", err)
	}
	if _, err := bob.Receive(ctx); !errors.Is(err, relay.ErrClosed) {
		t.Fatalf("Receive after Close = %v, want ErrClosed", err)
	}
}

func TestLoopback_ReconnectReplacesTransport(t *testing.T) {
	ctx := context.Background()
	lb := relay.NewLoopback()
	first := lb.Connect("alice")
	second := lb.Connect("alice")

	if _, err := first.Receive(ctx); !errors.Is(err, relay.ErrClosed) {
		t.Fatalf("old transport Receive = %v, want ErrClosed", err)
	}
	// Closing the replaced transport leaves the new one registered.
	_ = first.Close()
	if on, _ := lb.Online(ctx, "bob", "alice"); !on {
		t.Fatal("alice should still be online")
	}
	_ = second.Close()
}

func TestLoopback_ReceiveHonoursContext(t *testing.T) {
	lb := relay.NewLoopback()
	tr := lb.Connect("alice")
	defer tr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := tr.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Receive = %v, want DeadlineExceeded", err)
	}
}
