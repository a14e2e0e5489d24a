package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandMatches(t *testing.T) {
	buy := Command{Aliases: []string{"🛒 Buy Views"}}
	assert.True(t, buy.Matches("🛒 Buy Views"))
	assert.True(t, buy.Matches("  /🛒 Buy Views "))
	assert.False(t, buy.Matches("Buy Views"))
	assert.False(t, buy.Matches(""))

	admin := Command{AdminOnly: true, Aliases: []string{"Admin"}}
	assert.False(t, admin.Matches("Admin"))
}
