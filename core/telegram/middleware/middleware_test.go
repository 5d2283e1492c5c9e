package middleware

import (
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	sender *tele.User
	update tele.Update
	store  map[string]any
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: userID},
		update: tele.Update{ID: 7, Message: &tele.Message{Text: "hi"}},
		store:  make(map[string]any),
	}
}

func (c *fakeContext) Sender() *tele.User      { return c.sender }
func (c *fakeContext) Chat() *tele.Chat        { return &tele.Chat{ID: 1, Type: tele.ChatPrivate} }
func (c *fakeContext) Update() tele.Update     { return c.update }
func (c *fakeContext) Text() string            { return "hi" }
func (c *fakeContext) Get(key string) any      { return c.store[key] }
func (c *fakeContext) Set(key string, val any) { c.store[key] = val }

func counter(n *int) tele.HandlerFunc {
	return func(tele.Context) error {
		*n++
		return nil
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	var ran, rejected int
	h := AdminOnlyMiddleware(AdminOptions{AdminID: 42, OnReject: counter(&rejected)})(counter(&ran))

	if err := h(newFakeContext(42)); err != nil {
		t.Fatalf("admin call: %v", err)
	}
	if err := h(newFakeContext(7)); err != nil {
		t.Fatalf("non-admin call: %v", err)
	}
	if ran != 1 || rejected != 1 {
		t.Fatalf("ran=%d rejected=%d, want 1 and 1", ran, rejected)
	}
}

func TestAdminOnlyWithoutAdminRejectsEveryone(t *testing.T) {
	var ran int
	h := AdminOnlyMiddleware(AdminOptions{})(counter(&ran))
	_ = h(newFakeContext(42))
	if ran != 0 {
		t.Fatalf("handler ran without a configured admin")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Unix(1000, 0)
	var ran, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		OnLimited: counter(&limited),
		Now:       func() time.Time { return now },
	})
	h := mw(counter(&ran))

	_ = h(newFakeContext(1))
	_ = h(newFakeContext(1))
	_ = h(newFakeContext(2))
	now = now.Add(2 * time.Second)
	_ = h(newFakeContext(1))

	if ran != 3 || limited != 1 {
		t.Fatalf("ran=%d limited=%d, want 3 and 1", ran, limited)
	}
}

func TestRateLimitExcludedKind(t *testing.T) {
	var ran int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"message": {}},
	})
	h := mw(counter(&ran))
	_ = h(newFakeContext(1))
	_ = h(newFakeContext(1))
	if ran != 2 {
		t.Fatalf("ran=%d, want 2", ran)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newFakeContext(1))
	if err == nil || err.Error() != "panic: boom" {
		t.Fatalf("err = %v", err)
	}

	want := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return want })
	if err := h(newFakeContext(1)); !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestLoggerMiddlewareStoresRID(t *testing.T) {
	c := newFakeContext(5)
	var ran int
	if err := LoggerMiddleware(counter(&ran))(c); err != nil {
		t.Fatal(err)
	}
	if ran != 1 {
		t.Fatalf("ran=%d", ran)
	}
	if rid, _ := c.Get("rid").(string); rid == "" {
		t.Fatal("rid not stored on context")
	}
}
