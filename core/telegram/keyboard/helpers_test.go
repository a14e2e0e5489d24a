package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons([]string{"a", "b"}, []string{"c"})
	require.Len(t, m.ReplyKeyboard, 2)
	assert.Equal(t, "a", m.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "c", m.ReplyKeyboard[1][0].Text)
	assert.True(t, m.ResizeKeyboard)
}

func TestInlineButtonsRowsMixesURLAndData(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "Open", URL: "https://example.com/ad"}},
		[]InlineBtn{{Text: "Done", Unique: "watched_ad", Data: "42"}},
	)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "https://example.com/ad", m.InlineKeyboard[0][0].URL)
	assert.Empty(t, m.InlineKeyboard[0][0].Data)
	assert.Equal(t, "watched_ad", m.InlineKeyboard[1][0].Unique)
	assert.Equal(t, "42", m.InlineKeyboard[1][0].Data)
}
