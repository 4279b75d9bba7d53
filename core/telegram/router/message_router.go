package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/oddsdesk/tipsterbot/core/telegram"
	"github.com/oddsdesk/tipsterbot/core/telegram/middleware"
)

// Modes resolves an incoming message to a stateful handler, such as an
// operator's open compose session or a customer's proof upload. When no
// mode claims the message, routing falls through to commands and the
// registered fallbacks.
type Modes interface {
	Resolve(c tele.Context) (name string, h tele.HandlerFunc, ok bool)
}

// MessageOptions controls fallback behaviour for message updates.
// AdminID gates admin-only commands reached through the bare-text
// lookup, matching the slash-command routes.
type MessageOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownMedia tele.HandlerFunc

	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// MessageRoutes builds handlers for text and every media payload kind,
// so stateful modes see stickers, videos, and voice notes too.
func MessageRoutes(modes Modes, reg *tg.Registry, opts MessageOptions) []tg.Route {
	adminGate := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	textHandler := func(c tele.Context) error {
		start := time.Now()

		if modes != nil {
			if name, h, ok := modes.Resolve(c); ok {
				return handleWithSummary(c, name, start, func() error {
					return h(c)
				})
			}
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				h := cmd.Handler
				if cmd.AdminOnly {
					h = adminGate(h)
				}
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return h(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	mediaHandler := func(name string) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			if modes != nil {
				if mode, h, ok := modes.Resolve(c); ok {
					return handleWithSummary(c, mode, start, func() error {
						return h(c)
					})
				}
			}
			if opts.UnknownMedia != nil {
				return handleWithSummary(c, name, start, func() error {
					return opts.UnknownMedia(c)
				})
			}
			logHandlerSummary(c, name, start, "skip", nil)
			return nil
		}
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}

	routes := []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(textHandler)},
		{Endpoint: tele.OnPhoto, Handler: wrap(mediaHandler("unexpected_photo"))},
		{Endpoint: tele.OnDocument, Handler: wrap(mediaHandler("unexpected_document"))},
	}
	// Remaining payload kinds share the media path so an open compose
	// session gets the unsupported-type refusal instead of silence.
	other := map[any]string{
		tele.OnSticker:   "unexpected_sticker",
		tele.OnVideo:     "unexpected_video",
		tele.OnAudio:     "unexpected_audio",
		tele.OnAnimation: "unexpected_animation",
		tele.OnVoice:     "unexpected_voice",
		tele.OnVideoNote: "unexpected_video_note",
		tele.OnContact:   "unexpected_contact",
		tele.OnLocation:  "unexpected_location",
		tele.OnDice:      "unexpected_dice",
	}
	for endpoint, name := range other {
		routes = append(routes, tg.Route{Endpoint: endpoint, Handler: wrap(mediaHandler(name))})
	}
	return routes
}
