package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallback(t *testing.T) {
	cases := []struct {
		name    string
		cb      *tele.Callback
		key     string
		payload string
	}{
		{"nil", nil, "", ""},
		{"encoded", &tele.Callback{Data: "\fwatched_ad|42"}, "watched_ad", "42"},
		{"no payload", &tele.Callback{Data: "\fmenu"}, "menu", ""},
		{"payload with separator", &tele.Callback{Data: "\fk|a|b"}, "k", "a|b"},
		{"unique resolved", &tele.Callback{Unique: "watched_ad", Data: "7"}, "watched_ad", "7"},
		{"plain", &tele.Callback{Data: "watched_ad|9"}, "watched_ad", "9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k, p := ParseCallback(tc.cb)
			assert.Equal(t, tc.key, k)
			assert.Equal(t, tc.payload, p)
		})
	}
}

func TestDataRoundTrip(t *testing.T) {
	k, p := ParseCallbackData(Data("watched_ad", "123"))
	assert.Equal(t, "watched_ad", k)
	assert.Equal(t, "123", p)
	assert.Equal(t, "\fmenu", Data("menu", ""))
}
