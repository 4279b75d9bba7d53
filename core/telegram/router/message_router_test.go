package router

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	tg "github.com/oddsdesk/tipsterbot/core/telegram"
	"github.com/oddsdesk/tipsterbot/core/telegram/commands"
)

// stubContext implements the slice of tele.Context the routing path
// touches; everything else panics via the embedded nil interface.
type stubContext struct {
	tele.Context
	message *tele.Message
	sender  *tele.User
	values  map[string]any
}

func newStubContext(m *tele.Message, sender *tele.User) *stubContext {
	return &stubContext{message: m, sender: sender, values: make(map[string]any)}
}

func (s *stubContext) Update() tele.Update      { return tele.Update{ID: 7, Message: s.message} }
func (s *stubContext) Message() *tele.Message   { return s.message }
func (s *stubContext) Callback() *tele.Callback { return nil }
func (s *stubContext) Sender() *tele.User       { return s.sender }

func (s *stubContext) Chat() *tele.Chat {
	if s.message != nil {
		return s.message.Chat
	}
	return nil
}

func (s *stubContext) Text() string {
	if s.message != nil {
		return s.message.Text
	}
	return ""
}

func (s *stubContext) Get(key string) any    { return s.values[key] }
func (s *stubContext) Set(key string, v any) { s.values[key] = v }

type fakeModes struct {
	name string
	h    tele.HandlerFunc
	ok   bool
}

func (f fakeModes) Resolve(tele.Context) (string, tele.HandlerFunc, bool) {
	return f.name, f.h, f.ok
}

func findRoute(t *testing.T, routes []tg.Route, endpoint any) tg.Route {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r
		}
	}
	t.Fatalf("no route for endpoint %v", endpoint)
	return tg.Route{}
}

func TestMessageRoutesCoverAllPayloadKinds(t *testing.T) {
	routes := MessageRoutes(nil, nil, MessageOptions{})

	endpoints := []any{
		tele.OnText, tele.OnPhoto, tele.OnDocument,
		tele.OnSticker, tele.OnVideo, tele.OnAudio, tele.OnAnimation,
		tele.OnVoice, tele.OnVideoNote, tele.OnContact, tele.OnLocation,
		tele.OnDice,
	}
	for _, ep := range endpoints {
		findRoute(t, routes, ep)
	}
	if len(routes) != len(endpoints) {
		t.Fatalf("got %d routes, want %d", len(routes), len(endpoints))
	}
}

func TestStickerReachesModeHandler(t *testing.T) {
	var handled bool
	modes := fakeModes{
		name: "compose.deliver",
		h:    func(tele.Context) error { handled = true; return nil },
		ok:   true,
	}
	routes := MessageRoutes(modes, nil, MessageOptions{})

	c := newStubContext(&tele.Message{ID: 1, Chat: &tele.Chat{ID: 999}}, &tele.User{ID: 999})
	if err := findRoute(t, routes, tele.OnSticker).Handler(c); err != nil {
		t.Fatalf("sticker route: %v", err)
	}
	if !handled {
		t.Fatal("open mode must receive non-photo media payloads")
	}
}

func TestUnclaimedMediaFallsBack(t *testing.T) {
	var fallback bool
	routes := MessageRoutes(fakeModes{}, nil, MessageOptions{
		UnknownMedia: func(tele.Context) error { fallback = true; return nil },
	})

	c := newStubContext(&tele.Message{ID: 2, Chat: &tele.Chat{ID: 42}}, &tele.User{ID: 42})
	if err := findRoute(t, routes, tele.OnVoice).Handler(c); err != nil {
		t.Fatalf("voice route: %v", err)
	}
	if !fallback {
		t.Fatal("unclaimed media must reach the fallback handler")
	}
}

func TestBareTextAdminCommandGated(t *testing.T) {
	var handled, rejected bool
	reg := tg.NewRegistry()
	reg.RegisterCommand("/reset_data", commands.Command{
		Handler:     func(tele.Context) error { handled = true; return nil },
		Description: "Reset everything",
		AdminOnly:   true,
	})

	routes := MessageRoutes(nil, reg, MessageOptions{
		AdminID:       999,
		OnAdminReject: func(tele.Context) error { rejected = true; return nil },
	})
	textRoute := findRoute(t, routes, tele.OnText)

	msg := &tele.Message{ID: 3, Text: "reset_data", Chat: &tele.Chat{ID: 42}}
	if err := textRoute.Handler(newStubContext(msg, &tele.User{ID: 42})); err != nil {
		t.Fatalf("text route: %v", err)
	}
	if handled || !rejected {
		t.Fatalf("non-admin bare command: handled=%t rejected=%t", handled, rejected)
	}

	rejected = false
	if err := textRoute.Handler(newStubContext(msg, &tele.User{ID: 999})); err != nil {
		t.Fatalf("text route: %v", err)
	}
	if !handled || rejected {
		t.Fatalf("admin bare command: handled=%t rejected=%t", handled, rejected)
	}
}
