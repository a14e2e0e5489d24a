package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdown(t *testing.T) {
	v1, err := EscapeMarkdown("a_b*c`d[e]", MarkdownV1)
	require.NoError(t, err)
	assert.Equal(t, "a\\_b\\*c\\`d\\[e]", v1)

	v2, err := EscapeMarkdown("1.5 (x) - y!", MarkdownV2)
	require.NoError(t, err)
	assert.Equal(t, "1\\.5 \\(x\\) \\- y\\!", v2)

	_, err = EscapeMarkdown("x", 3)
	assert.Error(t, err)

	assert.Equal(t, "john\\_doe", MD("john_doe"))
}
