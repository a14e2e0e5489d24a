package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestShouldRetry(t *testing.T) {
	assert.False(t, ShouldRetry(nil))
	assert.False(t, ShouldRetry(errors.New("bad request")))
	assert.True(t, ShouldRetry(tele.FloodError{RetryAfter: 3}))
	assert.True(t, ShouldRetry(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.True(t, ShouldRetry(&url.Error{Op: "Get", URL: "https://x", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}))
	assert.False(t, ShouldRetry(context.Canceled))
}

func TestShouldRetryWrappedTimeout(t *testing.T) {
	timeout := &net.DNSError{Err: "i/o timeout", Name: "api.telegram.org", IsTimeout: true}
	assert.True(t, ShouldRetry(&url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeout}))
	assert.False(t, ShouldRetry(&tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}))
}
