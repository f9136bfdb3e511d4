package auth

import (
	"log/slog"
	"sync"
	"time"
)

// Event は認証状態変化の種類。
type Event string

const (
	// EventSignedIn はログインが成功したことを示す。
	EventSignedIn Event = "SIGNED_IN"
	// EventSignedOut はログアウトしたことを示す。
	EventSignedOut Event = "SIGNED_OUT"
)

// Notification は1件の認証状態変化。
type Notification struct {
	Event     Event
	UserID    string
	SessionID string
	At        time.Time
}

// subscriber は購読者ごとの配信チャネル。
// userIDが空の場合は全ユーザーの通知を受け取る。
type subscriber struct {
	userID string
	ch     chan Notification
}

// Notifier は認証状態変化をプロセス内の購読者へプッシュ配信する。
// 受信が追いつかない購読者への通知は破棄し、Publishはブロックしない。
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
}

// NewNotifier はNotifierを生成する。
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]*subscriber)}
}

// Subscribe は通知を受け取るチャネルと購読解除関数を返す。
// 購読解除後にチャネルはcloseされる。解除関数は複数回呼んでもよい。
func (n *Notifier) Subscribe(userID string, buffer int) (<-chan Notification, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	sub := &subscriber{userID: userID, ch: make(chan Notification, buffer)}
	n.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish は該当する全購読者へ通知を配信する。
func (n *Notifier) Publish(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, sub := range n.subs {
		if sub.userID != "" && sub.userID != note.UserID {
			continue
		}
		select {
		case sub.ch <- note:
		default:
			slog.Warn("auth notification dropped",
				slog.String("event", string(note.Event)),
				slog.String("user_id", note.UserID),
			)
		}
	}
}

// OnAuthStateChange は全ユーザーの通知ごとにhandlerを呼び出すゴルーチンを起動する。
// 返り値の関数で購読を解除する。
func (n *Notifier) OnAuthStateChange(handler func(Notification)) func() {
	ch, cancel := n.Subscribe("", 16)
	go func() {
		for note := range ch {
			handler(note)
		}
	}()
	return cancel
}

// SubscriberCount は現在の購読者数を返す。テスト用。
func (n *Notifier) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
