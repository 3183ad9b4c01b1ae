package autolink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/docindex"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

func newDecl(kind, module, name, url string, children ...*declaration.Declaration) *declaration.Declaration {
	d := &declaration.Declaration{
		Type:       declaration.Type{Kind: kind},
		Name:       name,
		ModuleName: module,
		URL:        url,
		Children:   children,
	}
	for _, c := range children {
		c.Parent = d
	}
	return d
}

type fixture struct {
	linker *Linker
	outer  *declaration.Declaration
	run    *declaration.Declaration
	fn     *declaration.Declaration
}

func newFixture() fixture {
	run := newDecl(sourcekit.SwiftKind("function.method.instance"), "", "run(speed:)", "Classes/Outer.html#/s:run")
	outer := newDecl(sourcekit.KindClass, "ModA", "Outer", "Classes/Outer.html", run)
	fn := newDecl(sourcekit.SwiftKind("function.free"), "ModA", "f()", "Functions.html#/s:f")
	ext := newDecl(sourcekit.KindExtension, "ModA", "String", "Extensions/String.html")
	spin := newDecl(sourcekit.ObjCDeclPrefix+"method.instance", "", "-spin:", "Classes/Widget.html#/c:spin")
	widget := newDecl(sourcekit.KindObjCClass, "ObjC", "Widget", "Classes/Widget.html", spin)

	ix := docindex.New([]*declaration.Declaration{outer, fn, ext, widget})
	return fixture{linker: New(ix, nil), outer: outer, run: run, fn: fn}
}

func TestText(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain name",
			in:   "<p>Use <code>Outer</code> here.</p>",
			want: `<p>Use <code><a href="Classes/Outer.html">Outer</a></code> here.</p>`,
		},
		{
			name: "surrounding blanks",
			in:   "<p><code> Outer </code></p>",
			want: `<p><code><a href="Classes/Outer.html">Outer</a></code></p>`,
		},
		{
			name: "member path",
			in:   "<p><code>Outer.run(speed:)</code></p>",
			want: `<p><code><a href="Classes/Outer.html#/s:run">Outer.run(speed:)</a></code></p>`,
		},
		{
			name: "docc link",
			in:   "<p><code>&lt;doc:Outer&gt;</code></p>",
			want: `<p><code><a href="Classes/Outer.html">Outer</a></code></p>`,
		},
		{
			name: "docc path with disambiguation",
			in:   "<p><code>&lt;doc:/ModA/Outer-swift.class&gt;</code></p>",
			want: `<p><code><a href="Classes/Outer.html">Outer</a></code></p>`,
		},
		{
			name: "objc method",
			in:   "<p><code>-[Widget spin:]</code></p>",
			want: `<p><code><a href="Classes/Widget.html#/c:spin">-[Widget spin:]</a></code></p>`,
		},
		{
			name: "extensions are not linked",
			in:   "<p><code>String</code></p>",
			want: "<p><code>String</code></p>",
		},
		{
			name: "unknown name",
			in:   "<p><code>Missing</code></p>",
			want: "<p><code>Missing</code></p>",
		},
		{
			name: "code blocks are left alone",
			in:   "<pre><code>Outer</code></pre>",
			want: "<pre><code>Outer</code></pre>",
		},
		{
			name: "phrases are left alone",
			in:   "<p><code>Outer value</code></p>",
			want: "<p><code>Outer value</code></p>",
		},
		{
			name: "no code",
			in:   "<p>Outer</p>",
			want: "<p>Outer</p>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.linker.Text(tt.in, f.fn)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextSkipsSelfAndOwnPage(t *testing.T) {
	f := newFixture()

	got, err := f.linker.Text("<p><code>Outer</code></p>", f.outer)
	require.NoError(t, err)
	assert.Equal(t, "<p><code>Outer</code></p>", got)

	got, err = f.linker.Text("<p><code>Outer</code></p>", f.run)
	require.NoError(t, err)
	assert.Equal(t, "<p><code>Outer</code></p>", got)
}

func TestLinkRewritesFieldsOfTheTree(t *testing.T) {
	f := newFixture()
	f.run.Abstract = "<p>See <code>f()</code>.</p>"
	f.run.Parameters = []declaration.Parameter{{Name: "speed", Discussion: "<p>Like <code>f()</code></p>"}}
	f.run.Return = "<p>An <code>Outer</code></p>"

	require.NoError(t, f.linker.Link([]*declaration.Declaration{f.outer}))

	assert.Equal(t, `<p>See <code><a href="Functions.html#/s:f">f()</a></code>.</p>`, f.run.Abstract)
	assert.Equal(t, `<p>Like <code><a href="Functions.html#/s:f">f()</a></code></p>`, f.run.Parameters[0].Discussion)
	assert.Equal(t, "<p>An <code>Outer</code></p>", f.run.Return, "own page is not linked")
	assert.Equal(t, 2, f.linker.Linked())
}

func TestHighlighted(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name string
		in   string
		doc  *declaration.Declaration
		want string
	}{
		{
			name: "type names",
			in:   `<pre class="highlight swift"><code>func f(o: Outer) -&gt; [Outer]</code></pre>`,
			doc:  f.fn,
			want: `<pre class="highlight swift"><code>func f(o: <a href="Classes/Outer.html">Outer</a>) -&gt; [<a href="Classes/Outer.html">Outer</a>]</code></pre>`,
		},
		{
			name: "objc type",
			in:   `<pre class="highlight objective_c"><code>- (void)use:(Widget *)w;</code></pre>`,
			doc:  f.fn,
			want: `<pre class="highlight objective_c"><code>- (void)use:(<a href="Classes/Widget.html">Widget</a> *)w;</code></pre>`,
		},
		{
			name: "own page",
			in:   `<pre class="highlight swift"><code>func run(speed: Outer)</code></pre>`,
			doc:  f.run,
			want: `<pre class="highlight swift"><code>func run(speed: Outer)</code></pre>`,
		},
		{
			name: "extensions and unknown names",
			in:   `<pre class="highlight swift"><code>var s: String &amp; Missing</code></pre>`,
			doc:  f.fn,
			want: `<pre class="highlight swift"><code>var s: String &amp; Missing</code></pre>`,
		},
		{
			name: "text outside pre",
			in:   `<p>Outer</p>`,
			doc:  f.fn,
			want: `<p>Outer</p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.linker.Highlighted(tt.in, tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLinkRewritesDeclarations(t *testing.T) {
	f := newFixture()
	f.fn.Declaration = `<pre class="highlight swift"><code>func f() -&gt; Outer</code></pre>`
	f.fn.OtherLanguageDeclaration = `<pre class="highlight objective_c"><code>Outer *f(void);</code></pre>`

	require.NoError(t, f.linker.Link([]*declaration.Declaration{f.fn}))

	assert.Equal(t, `<pre class="highlight swift"><code>func f() -&gt; <a href="Classes/Outer.html">Outer</a></code></pre>`, f.fn.Declaration)
	assert.Equal(t, `<pre class="highlight objective_c"><code><a href="Classes/Outer.html">Outer</a> *f(void);</code></pre>`, f.fn.OtherLanguageDeclaration)
	assert.Equal(t, 2, f.linker.Linked())
}

func TestCandidates(t *testing.T) {
	assert.Equal(t, []candidate{{"+spin:", "+spin:"}, {"+spin:", "+spin:"}}, candidates("+spin:"))
	assert.Equal(t, []candidate{{"-[Widget spin:]", "-[Widget spin:]"}}, candidates("-[Widget spin:]"))
	assert.Equal(t, []candidate{{"A/B", "B"}}, candidates("A/B"))
	assert.Empty(t, candidates("a b"))
	assert.Equal(t, "Outer", trimDisambiguation("Outer-swift.class"))
	assert.Equal(t, "-spin:", trimDisambiguation("-spin:"))
	assert.Equal(t, "a-", trimDisambiguation("a-"))
}
