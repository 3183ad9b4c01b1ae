package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderExtractsParametersAndReturns(t *testing.T) {
	r := New()

	out, err := r.Render("Adds numbers.\n\n- Parameter x: The first.\n- Parameter y: The second.\n- Returns: The sum.\n")
	require.NoError(t, err)

	assert.Equal(t, "<p>Adds numbers.</p>\n", out.HTML)
	assert.Equal(t, "<p>The sum.</p>\n", out.Returns)
	assert.Equal(t, map[string]string{
		"x": "<p>The first.</p>\n",
		"y": "<p>The second.</p>\n",
	}, out.Parameters)
}

func TestRenderParametersList(t *testing.T) {
	out, err := New().Render("Body.\n\n- Parameters:\n  - a: Alpha\n  - b: Beta\n")
	require.NoError(t, err)

	assert.Equal(t, "<p>Body.</p>\n", out.HTML)
	assert.Equal(t, "<p>Alpha</p>\n", out.Parameters["a"])
	assert.Equal(t, "<p>Beta</p>\n", out.Parameters["b"])
	assert.Empty(t, out.Returns)
}

func TestRenderCalloutBodyStartsAfterSeparator(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		returns string
		html    string
	}{
		{name: "single word returns", src: "- Returns: Sum\n", returns: "<p>Sum</p>\n"},
		{name: "returns on next line", src: "- Returns:\n  The sum.\n", returns: "<p>The sum.</p>\n"},
		{name: "wide separator", src: "- Returns:    Sum\n", returns: "<p>Sum</p>\n"},
		{
			name: "single word aside",
			src:  "- Warning: hot\n",
			html: "<div class='aside aside-warning'>\n<p class='aside-title'>Warning</p>\n<p>hot</p>\n</div>\n",
		},
		{
			name: "emphasis body",
			src:  "- Note: *hot*\n",
			html: "<div class='aside aside-note'>\n<p class='aside-title'>Note</p>\n<p><em>hot</em></p>\n</div>\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New().Render(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.returns, out.Returns)
			assert.Equal(t, tt.html, out.HTML)
		})
	}
}

func TestRenderObjCParameter(t *testing.T) {
	out, err := New().Render("- parameter: name The name.\n")
	require.NoError(t, err)

	assert.Equal(t, "<p>The name.</p>\n", out.Parameters["name"])
	assert.Empty(t, out.HTML)
}

func TestRenderCalloutAsides(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "normal callout",
			src:  "Summary.\n\n- Note: Be careful.\n",
			want: "<p>Summary.</p>\n<div class='aside aside-note'>\n<p class='aside-title'>Note</p>\n<p>Be careful.</p>\n</div>\n",
		},
		{
			name: "custom callout",
			src:  "- Callout(Fun Fact): Swift.\n",
			want: "<div class='aside aside-fun-fact'>\n<p class='aside-title'>Fun fact</p>\n<p>Swift.</p>\n</div>\n",
		},
		{
			name: "mixed case",
			src:  "- SeeAlso: Other.\n",
			want: "<div class='aside aside-seealso'>\n<p class='aside-title'>Seealso</p>\n<p>Other.</p>\n</div>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := New().Render(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.HTML)
		})
	}
}

func TestRenderLeavesOrdinaryListsAlone(t *testing.T) {
	out, err := New().Render("- just an item\n- key: value\n- Warning: hot\n")
	require.NoError(t, err)

	assert.Contains(t, out.HTML, "<li>just an item</li>")
	assert.Contains(t, out.HTML, "<li>key: value</li>")
	assert.Contains(t, out.HTML, "<div class='aside aside-warning'>")
	assert.NotContains(t, out.HTML, "<li>Warning")
}

func TestRenderDocCAside(t *testing.T) {
	out, err := New().Render("> Important: Hot.\n")
	require.NoError(t, err)

	assert.Contains(t, out.HTML, "<div class='aside aside-important'>")
	assert.Contains(t, out.HTML, "<p>Hot.</p>")
	assert.NotContains(t, out.HTML, "blockquote")
}

func TestRenderCodeAndMath(t *testing.T) {
	r := New()

	out, err := r.Render("Uses `$x^2$` and `<T>`.\n")
	require.NoError(t, err)
	assert.Contains(t, out.HTML, "<span class='math m-inline'>x^2</span>")
	assert.Contains(t, out.HTML, "<code>&lt;T&gt;</code>")
	assert.True(t, out.HasMath)

	out, err = r.Render("```\nlet x = 1\n```\n")
	require.NoError(t, err)
	assert.Equal(t, "<pre class=\"highlight swift\"><code>let x = 1\n</code></pre>\n", out.HTML)
	assert.False(t, out.HasMath)

	out, err = New(WithDefaultLanguage("objective_c")).Render("    [foo bar];\n")
	require.NoError(t, err)
	assert.Contains(t, out.HTML, `<pre class="highlight objective_c">`)
}

func TestRenderHeadingSlug(t *testing.T) {
	out, err := New().Render("# Getting Started!\n")
	require.NoError(t, err)
	assert.Equal(t, "<h1 id='getting-started' class='heading'>Getting Started!</h1>\n", out.HTML)
}

func TestRenderInline(t *testing.T) {
	got, err := New().RenderInline("Hello *world*")
	require.NoError(t, err)
	assert.Equal(t, "<span>Hello <em>world</em></span>", got)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Seealso", humanize("SeeAlso"))
	assert.Equal(t, "Custom thing", humanize("custom_thing"))
	assert.Equal(t, "", humanize(""))
}
