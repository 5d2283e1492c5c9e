// Package commands describes bot commands independently of how they are routed.
package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Usage is shown after the command name in help output, e.g. "<filter>".
	Usage     string
	AdminOnly bool
	Hidden    bool
	Aliases   []string
}

// HelpLine renders "/name usage - description".
func (c Command) HelpLine(name string) string {
	line := name
	if c.Usage != "" {
		line += " " + c.Usage
	}
	if c.Description != "" {
		line += " - " + c.Description
	}
	return line
}
