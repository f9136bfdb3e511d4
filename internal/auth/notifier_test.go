package auth

import (
	"testing"
	"time"
)

func TestNotifier_FiltersByUser(t *testing.T) {
	n := NewNotifier()
	mine, cancelMine := n.Subscribe("user-1", 4)
	defer cancelMine()
	all, cancelAll := n.Subscribe("", 4)
	defer cancelAll()

	n.Publish(Notification{Event: EventSignedIn, UserID: "user-2"})
	n.Publish(Notification{Event: EventSignedOut, UserID: "user-1"})

	if got := len(mine); got != 1 {
		t.Fatalf("expected 1 notification for user-1, got %d", got)
	}
	if note := <-mine; note.Event != EventSignedOut {
		t.Errorf("expected SIGNED_OUT, got %s", note.Event)
	}
	if got := len(all); got != 2 {
		t.Errorf("expected 2 notifications for wildcard subscriber, got %d", got)
	}
}

func TestNotifier_PublishDoesNotBlock(t *testing.T) {
	n := NewNotifier()
	_, cancel := n.Subscribe("user-1", 0)
	defer cancel()

	done := make(chan struct{})
	go func() {
		n.Publish(Notification{Event: EventSignedIn, UserID: "user-1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestNotifier_CancelClosesChannel(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe("user-1", 1)
	if n.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n.SubscriberCount())
	}

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
	if n.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", n.SubscriberCount())
	}

	// 解除後のPublishはpanicしない
	n.Publish(Notification{Event: EventSignedOut, UserID: "user-1"})
}

func TestNotifier_OnAuthStateChange(t *testing.T) {
	n := NewNotifier()
	got := make(chan Notification, 1)
	stop := n.OnAuthStateChange(func(note Notification) {
		got <- note
	})
	defer stop()

	n.Publish(Notification{Event: EventSignedIn, UserID: "user-9"})

	select {
	case note := <-got:
		if note.UserID != "user-9" {
			t.Errorf("unexpected user %q", note.UserID)
		}
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}
}
