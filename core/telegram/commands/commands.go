// Package commands describes slash commands and the menu labels that trigger them.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is one slash command. Aliases are reply-keyboard labels that run the
// same handler when sent as plain text; admin-only commands never match them.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Matches reports whether text, with or without a leading slash, is one of
// the command's aliases.
func (c Command) Matches(text string) bool {
	if c.AdminOnly {
		return false
	}
	text = strings.TrimPrefix(strings.TrimSpace(text), "/")
	if text == "" {
		return false
	}
	for _, alias := range c.Aliases {
		if strings.TrimPrefix(alias, "/") == text {
			return true
		}
	}
	return false
}
