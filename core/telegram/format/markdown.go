package format

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

const (
	mdV1Specials = "_*`[\\"
	mdV2Specials = "_*[]()~`>#+-=|{}.!\\"
)

var (
	mdV1Re = specialsRe(mdV1Specials)
	mdV2Re = specialsRe(mdV2Specials)
)

// specialsRe matches any single rune of specials. Every rune is escaped on
// its own so that no pair inside the class reads as a range.
func specialsRe(specials string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("([")
	for _, r := range specials {
		b.WriteByte('\\')
		b.WriteRune(r)
	}
	b.WriteString("])")
	return regexp.MustCompile(b.String())
}

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\$1`), nil
	case MarkdownV2:
		return mdV2Re.ReplaceAllString(text, `\$1`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// Code wraps text in a MarkdownV1 inline code span. Backticks are dropped
// since V1 cannot escape them inside code.
func Code(text string) string {
	out := make([]rune, 0, len(text)+2)
	out = append(out, '`')
	for _, r := range text {
		if r != '`' {
			out = append(out, r)
		}
	}
	return string(append(out, '`'))
}
