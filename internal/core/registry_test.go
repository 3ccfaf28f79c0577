package core

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestRegistryReplaceAndUnregister(t *testing.T) {
	r := NewRegistry(nil)
	id := uuid.New()
	first, second := NewClient(id, "u", 4), NewClient(id, "u", 4)

	if r.Register(id, first) {
		t.Fatalf("first register must not report a replacement")
	}
	if !r.Register(id, second) {
		t.Fatalf("second register must report a replacement")
	}

	if err := r.Send(id, []byte("hello")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(received(first)) != 0 || len(received(second)) != 1 {
		t.Fatalf("only the latest socket may receive")
	}

	r.Unregister(id)
	r.Unregister(id)
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
	if err := r.Send(id, []byte("gone")); !errors.Is(err, ErrUnknownRecipient) {
		t.Fatalf("expected ErrUnknownRecipient, got %v", err)
	}
}

func TestClientPushDropsWhenFull(t *testing.T) {
	c := NewClient(uuid.New(), "", 1)
	if c.Name != c.ID.String() {
		t.Fatalf("expected id as default name, got %q", c.Name)
	}
	if err := c.Push([]byte("1")); err != nil {
		t.Fatalf("push: %v", err)
	}
	if err := c.Push([]byte("2")); !errors.Is(err, ErrSlowConsumer) {
		t.Fatalf("expected ErrSlowConsumer, got %v", err)
	}
}
