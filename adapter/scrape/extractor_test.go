package scrape

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsx/domain"
)

func page(body string) string {
	return `<html><body><div class="detail-content afcbc-body" data-role="content">` + body + `</div></body></html>`
}

func TestExtractContent_ProtocolRelativeImage(t *testing.T) {
	t.Parallel()

	out := ExtractContent(page(`<p>x</p><img src="//cdn.example.com/a.jpg">`))
	assert.Contains(t, out, `src="https://cdn.example.com/a.jpg"`)
	assert.NotContains(t, out, `src="//`)
}

func TestExtractContent_LazyImageResolved(t *testing.T) {
	t.Parallel()

	out := ExtractContent(page(`<img src="data:image/gif;base64,R0lGOD" data-src="//cdn.example.com/real.jpg" srcset="//cdn.example.com/small.jpg 320w">`))

	assert.Contains(t, out, `src="https://cdn.example.com/real.jpg"`)
	assert.NotContains(t, out, "data-src")
	assert.NotContains(t, out, "srcset")
	assert.NotContains(t, out, "base64")
	assert.Contains(t, out, `alt=""`)
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `decoding="async"`)
}

func TestExtractContent_SrcsetFirstCandidate(t *testing.T) {
	t.Parallel()

	out := ExtractContent(page(`<img srcset="//cdn.example.com/a-1x.jpg 1x, //cdn.example.com/a-2x.jpg 2x" alt="photo">`))
	assert.Contains(t, out, `src="https://cdn.example.com/a-1x.jpg"`)
	assert.Contains(t, out, `alt="photo"`)
}

func TestExtractContent_PlaceholderOnlyImageDropped(t *testing.T) {
	t.Parallel()

	out := ExtractContent(page(`<p>text</p><img src="data:image/gif;base64,AAAA">`))
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "<p>text</p>")
}

func TestExtractContent_RemovesNoiseKeepsFigures(t *testing.T) {
	t.Parallel()

	html := page(`
<p>Lead</p>
<script>track()</script>
<style>.x{}</style>
<iframe src="https://ads.example.com"></iframe>
<div class="VCSortableInPreviewMode" type="RelatedNewsBox"><a href="/other.htm">Other</a></div>
<div class="VCSortableInPreviewMode" type="Photo"><figure><img src="//cdn.example.com/p.jpg"><figcaption>Caption</figcaption></figure></div>
<div class="box-read-more">Read more</div>
<div class="kbwc-slot">ad</div>
<div class="relate-container">related</div>
<div class="ads banner-left">ad</div>
<div class="note">Kept block</div>`)

	out := ExtractContent(html)

	assert.Contains(t, out, "<p>Lead</p>")
	assert.Contains(t, out, "<figure>")
	assert.Contains(t, out, "<figcaption>Caption</figcaption>")
	assert.Contains(t, out, "https://cdn.example.com/p.jpg")
	assert.Contains(t, out, "Kept block")
	for _, gone := range []string{"track()", "<style", "<iframe", "RelatedNewsBox", "Read more", "kbwc-slot", "relate-container", `class="ads`} {
		assert.NotContains(t, out, gone)
	}
}

func TestExtractContent_NoscriptUnwrapped(t *testing.T) {
	t.Parallel()

	out := ExtractContent(page(`<figure><noscript><img src="//cdn.example.com/ns.jpg" alt="hidden"></noscript></figure><noscript>   </noscript>`))

	assert.NotContains(t, out, "noscript")
	assert.Contains(t, out, `src="https://cdn.example.com/ns.jpg"`)
	assert.Contains(t, out, `alt="hidden"`)
}

func TestExtractContent_AnchorNormalization(t *testing.T) {
	t.Parallel()

	out := ExtractContent(page(`<a href="https://a.example" rel="nofollow noopener">a</a>`))
	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, `rel="nofollow noopener noreferrer"`)
}

func TestSanitizeFragment_Idempotent(t *testing.T) {
	t.Parallel()

	in := `<p><a href="https://a.example">a</a> <a href="/b" rel="noreferrer">b</a></p><img data-src="//cdn.example.com/x.jpg">`
	once := SanitizeFragment(in)
	twice := SanitizeFragment(once)

	assert.Equal(t, once, twice)
	assert.Equal(t, 2, strings.Count(once, "noopener"))
	assert.Equal(t, 2, strings.Count(once, "noreferrer"))
}

func TestExtractContent_MissingContainer(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NoContent, ExtractContent(`<html><body><div class="detail-content">x</div></body></html>`))
	assert.Equal(t, NoContent, ExtractContent(page("")))
	assert.Equal(t, NoContent, ExtractContent(""))
	assert.True(t, Extract(page("")).Diagnostic)
}

func TestExtractAuthor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want domain.AuthorInfo
	}{
		{
			name: "full profile",
			html: `<div class="detail-author oneauthor">
<div class="groupavtauthor"><a href="/author"><img src="//cdn.example.com/avt.jpg"></a></div>
<div class="author-info"><a href="/author"> Nguyễn Văn A </a><a href="/other">B</a></div>
</div>`,
			want: domain.ProfileAuthor("Nguyễn Văn A", "https://cdn.example.com/avt.jpg"),
		},
		{
			name: "name only",
			html: `<div class="detail-author"><div class="author-info"><a>Trần B</a></div></div>`,
			want: domain.ProfileAuthor("Trần B", NoAvatar),
		},
		{
			name: "avatar only",
			html: `<div class="detail-author"><div class="groupavtauthor"><img data-src="https://cdn.example.com/b.jpg"></div></div>`,
			want: domain.ProfileAuthor(UnknownAuthor, "https://cdn.example.com/b.jpg"),
		},
		{
			name: "empty block",
			html: `<div class="detail-author"><div class="author-info"><a>  </a></div></div>`,
			want: domain.DiagnosticAuthor(NoAuthor),
		},
		{
			name: "no block",
			html: `<div class="author-info"><a>Outside</a></div>`,
			want: domain.DiagnosticAuthor(NoAuthor),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractAuthor("<html><body>"+tt.html+"</body></html>"))
		})
	}
}

func TestExtract_AuthorOutsideContentSurvivesSanitizing(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<div class="detail-author"><div class="author-info"><a>C</a></div></div>
<div class="detail-content afcbc-body"><p>Body</p></div>
</body></html>`

	got := Extract(html)
	require.True(t, got.Author.IsProfile())
	assert.Equal(t, "C", got.Author.Name)
	assert.Equal(t, "<p>Body</p>", got.Content)
}

func TestFetchError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Error when fetching article content: boom", FetchError(errors.New("boom")))
}
