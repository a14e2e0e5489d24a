// Package ui declares what the routers need from the bot for updates no route claims.
package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider answers free text that is neither a menu label nor part of a
// dialogue, documents, and callbacks whose unique is not registered.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}
