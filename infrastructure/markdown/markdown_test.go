package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("# House Rules\n\nRoll **2d6**.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, `<h1 id="house-rules">House Rules</h1>`)
	assert.Contains(t, html, "<strong>2d6</strong>")
	assert.Contains(t, html, "<table>")
}

func TestRender_Sanitizes(t *testing.T) {
	r := NewRenderer()

	out := string(r.MustRender("<script>alert(1)</script>\n\n[x](javascript:alert(1)) <img src=x onerror=alert(1)>"))
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
	assert.NotContains(t, out, "onerror")

	link := string(r.MustRender("[wiki](https://example.com)"))
	assert.Contains(t, link, `rel="nofollow noopener"`)
	assert.Contains(t, link, `target="_blank"`)
}
