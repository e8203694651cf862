package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHTML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		text    string
		media   int
		hasBody bool
	}{
		{"paragraph", "<p>One half</p>", "One half", 0, true},
		{"nested blocks", "<h1>Fractions</h1><p>Parts of   a <b>whole</b></p>", "Fractions Parts of a whole", 0, true},
		{"plain text", "just words", "just words", 0, true},
		{"empty markup", "<p> </p><div>\n</div>", "", 0, false},
		{"comment only", "<!-- draft -->", "", 0, false},
		{"script only", "<script>alert(1)</script><style>p{}</style>", "", 0, false},
		{"image only", `<p><img src="half.png" alt="half"></p>`, "", 1, true},
		{"text and media", `<p>See</p><video src="a.mp4"></video><img src="b.png">`, "See", 2, true},
		{"entities", "<p>1 &lt; 2</p>", "1 < 2", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := ParseHTML(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.text, frag.Text)
			assert.Equal(t, tt.media, frag.Media)
			assert.Equal(t, tt.hasBody, frag.HasBody())
		})
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", cleanText("  a\n\tb   c "))
	assert.Equal(t, "", cleanText(" \n "))
}
