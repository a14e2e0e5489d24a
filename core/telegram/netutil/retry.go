// Package netutil classifies Bot API call failures.
package netutil

import (
	"errors"
	"net"
	"net/url"

	tele "gopkg.in/telebot.v4"
)

// ShouldRetry reports whether a Bot API failure is worth another attempt: a
// flood wait, a timeout, a temporary network error or a failed dial. API
// rejections such as "bot was blocked by the user" are final.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return true
	}
	if transient(err) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Op == "dial" || transient(opErr.Err)) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
		return ShouldRetry(urlErr.Err)
	}
	return false
}

func transient(err error) bool {
	var netErr net.Error
	if !errors.As(err, &netErr) {
		return false
	}
	return netErr.Timeout() || netErr.Temporary()
}
