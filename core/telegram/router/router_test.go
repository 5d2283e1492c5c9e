package router

import (
	"errors"
	"testing"

	tg "github.com/m3rciful/filtrbot/core/telegram"
	"github.com/m3rciful/filtrbot/core/telegram/commands"
	"github.com/m3rciful/filtrbot/core/telegram/dispatch"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	userID int64
	text   string
	store  map[string]any
}

func newFakeContext(userID int64, text string) *fakeContext {
	return &fakeContext{userID: userID, text: text, store: make(map[string]any)}
}

func (c *fakeContext) Sender() *tele.User      { return &tele.User{ID: c.userID} }
func (c *fakeContext) Chat() *tele.Chat        { return &tele.Chat{ID: c.userID} }
func (c *fakeContext) Update() tele.Update     { return tele.Update{ID: 1} }
func (c *fakeContext) Text() string            { return c.text }
func (c *fakeContext) Get(key string) any      { return c.store[key] }
func (c *fakeContext) Set(key string, val any) { c.store[key] = val }

func TestCommandRoutes(t *testing.T) {
	reg := tg.NewRegistry()
	var pings, enables int
	mustRegister(t, reg, "/ping", commands.Command{
		Description: "ping",
		Aliases:     []string{"p"},
		Handler:     func(tele.Context) error { pings++; return nil },
	})
	mustRegister(t, reg, "/enable", commands.Command{
		Description: "enable a filter",
		AdminOnly:   true,
		Handler:     func(tele.Context) error { enables++; return nil },
	})

	routes := CommandRoutes(reg, CommandRouteOptions{AdminID: 9})
	byEndpoint := make(map[any]tele.HandlerFunc)
	for _, r := range routes {
		byEndpoint[r.Endpoint] = r.Handler
	}
	if len(routes) != 3 {
		t.Fatalf("got %d routes, want 3", len(routes))
	}
	for _, ep := range []string{"/ping", "/p", "/enable"} {
		if byEndpoint[ep] == nil {
			t.Fatalf("missing route %s", ep)
		}
	}

	_ = byEndpoint["/p"](newFakeContext(1, "/p"))
	_ = byEndpoint["/enable"](newFakeContext(1, "/enable ping"))
	_ = byEndpoint["/enable"](newFakeContext(9, "/enable ping"))
	if pings != 1 || enables != 1 {
		t.Fatalf("pings=%d enables=%d, want 1 and 1", pings, enables)
	}
}

func TestMessageRoutesDispatch(t *testing.T) {
	d := dispatch.New()
	var hits int
	d.AddHandler(&dispatch.Handler{
		Name:  "hello",
		Match: func(c tele.Context) bool { return c.Text() == "hello" },
		Func:  func(tele.Context) error { hits++; return nil },
	}, 0)

	routes := MessageRoutes(d)
	if len(routes) != len(MessageEndpoints) {
		t.Fatalf("got %d routes", len(routes))
	}
	h := routes[0].Handler
	if err := h(newFakeContext(1, "hello")); err != nil {
		t.Fatal(err)
	}
	if err := h(newFakeContext(1, "bye")); err != nil {
		t.Fatal(err)
	}
	if hits != 1 {
		t.Fatalf("hits=%d, want 1", hits)
	}
	if MessageRoutes(nil) != nil {
		t.Fatal("nil dispatcher should yield no routes")
	}
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "not found" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestDeriveErrorCode(t *testing.T) {
	cases := map[string]error{
		"NOT_FOUND": codedErr{},
		"PLAINERR":  &plainErr{},
		"":          nil,
	}
	for want, err := range cases {
		if got := deriveErrorCode(err); got != want {
			t.Fatalf("deriveErrorCode(%v) = %q, want %q", err, got, want)
		}
	}
	if got := deriveErrorCode(errors.New("x")); got != "ERRORSTRING" {
		t.Fatalf("deriveErrorCode(errors.New) = %q", got)
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	if got := normalizeHandlerName(" /Clear Filters "); got != "clear_filters" {
		t.Fatalf("got %q", got)
	}
	if got := normalizeHandlerName(""); got != "unknown" {
		t.Fatalf("got %q", got)
	}
}

func mustRegister(t *testing.T, reg *tg.Registry, name string, cmd commands.Command) {
	t.Helper()
	if err := reg.RegisterCommand(name, cmd); err != nil {
		t.Fatal(err)
	}
}
