package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/m3rciful/filtrbot/core/filters"
	tghelpers "github.com/m3rciful/filtrbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Dispatch groups of the bundled filters. Both may answer the same update.
const (
	groupCommands = 0
	groupGreeting = 1
)

var greetings = []string{"hello", "hi", "hey"}

// firstWord returns the first whitespace separated token of the message.
func firstWord(c tele.Context) string {
	fields := strings.Fields(c.Text())
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

func matchPing(reg *filters.Registry) func(tele.Context) bool {
	return func(c tele.Context) bool {
		word := firstWord(c)
		// "/ping" and "/ping@botname" but not a bare "ping".
		word, _, _ = strings.Cut(word, "@")
		return word != "" && reg.Normalize(word) != word && reg.Normalize(word) == "ping"
	}
}

func matchHello(c tele.Context) bool {
	word := strings.Trim(firstWord(c), "!.,")
	for _, g := range greetings {
		if word == g {
			return true
		}
	}
	return false
}

func replyPong(c tele.Context) error {
	return tghelpers.SendText(c, "pong")
}

func replyHello(c tele.Context) error {
	name := "there"
	if u := c.Sender(); u != nil && u.FirstName != "" {
		name = u.FirstName
	}
	return tghelpers.SendText(c, fmt.Sprintf("Hello, %s!", name))
}

// RegisterSampleFilters registers the bundled ping and hello filters.
func RegisterSampleFilters(ctx context.Context, reg *filters.Registry) error {
	if _, err := reg.Register(ctx, groupCommands, "ping", "replies pong", matchPing(reg), replyPong); err != nil {
		return fmt.Errorf("register ping: %w", err)
	}
	if _, err := reg.Register(ctx, groupGreeting, "hello", "greets the sender", matchHello, replyHello); err != nil {
		return fmt.Errorf("register hello: %w", err)
	}
	return nil
}
