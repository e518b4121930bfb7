// Package scrape extracts article bodies and author metadata from article
// pages of the tuoitre.vn layout family.
package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsx/domain"
)

const (
	contentSelector = "div.detail-content.afcbc-body"
	authorSelector  = "div.detail-author"

	NoContent     = "Cannot find any content."
	NoAuthor      = "Can't find any author information."
	UnknownAuthor = "Unknown"
	NoAvatar      = "No avatar found"
)

// noiseTags are removed wherever they appear inside the content container.
var noiseTags = "script, style, iframe, ins, link"

// noiseClasses are exact class tokens marking boilerplate blocks.
var noiseClasses = map[string]bool{
	"relate-container": true,
	"box-read-more":    true,
	"ads":              true,
	"banner":           true,
}

// imageSourceAttrs is the order in which an image's real source is looked up.
var imageSourceAttrs = []string{
	"data-src",
	"data-original",
	"data-lazy-src",
	"data-srcset",
	"srcset",
	"src",
}

var lazyAttrs = []string{"data-src", "data-original", "data-lazy-src", "data-srcset", "srcset"}

// FetchError formats the diagnostic carried by an article whose page could
// not be fetched or parsed.
func FetchError(err error) string {
	return fmt.Sprintf("Error when fetching article content: %s", err)
}

// Extract parses html once and returns both the sanitized content and the
// author. It never fails.
func Extract(html string) (out domain.ScrapedArticle) {
	defer func() {
		if r := recover(); r != nil {
			out = failed(fmt.Errorf("%v", r))
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return failed(err)
	}
	// Author first: content sanitizing mutates the document.
	author := authorFromDoc(doc)
	content, ok := contentFromDoc(doc)
	return domain.ScrapedArticle{Content: content, Author: author, Diagnostic: !ok}
}

func failed(err error) domain.ScrapedArticle {
	msg := FetchError(err)
	return domain.ScrapedArticle{
		Content:    msg,
		Author:     domain.DiagnosticAuthor(msg),
		Diagnostic: true,
	}
}

// ExtractContent returns the sanitized inner HTML of the article body, or
// NoContent when the page has no recognizable body.
func ExtractContent(html string) string {
	return Extract(html).Content
}

// ExtractAuthor returns the article's author profile, or a diagnostic when the
// page carries no author block.
func ExtractAuthor(html string) domain.AuthorInfo {
	return Extract(html).Author
}

// SanitizeFragment applies the content cleanup rules to an HTML fragment.
// Applying it to its own output is a no-op.
func SanitizeFragment(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	body := doc.Find("body")
	sanitize(body)
	out, err := body.Html()
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(out)
}

func contentFromDoc(doc *goquery.Document) (string, bool) {
	container := doc.Find(contentSelector).First()
	if container.Length() == 0 {
		return NoContent, false
	}
	sanitize(container)
	out, err := container.Html()
	if err != nil {
		return FetchError(err), false
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return NoContent, false
	}
	return out, true
}

func sanitize(root *goquery.Selection) {
	unwrapNoscript(root)
	root.Find(noiseTags).Remove()
	root.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		if isNoise(s) {
			s.Remove()
		}
	})
	root.Find("img").Each(func(_ int, img *goquery.Selection) {
		normalizeImage(img)
	})
	root.Find("a").Each(func(_ int, a *goquery.Selection) {
		normalizeAnchor(a)
	})
}

// unwrapNoscript replaces each noscript block by the markup it hides. The
// parser keeps noscript content as text, so the text is re-parsed as HTML.
func unwrapNoscript(root *goquery.Selection) {
	root.Find("noscript").Each(func(_ int, s *goquery.Selection) {
		markup := s.Text()
		if s.Children().Length() > 0 {
			markup, _ = s.Html()
		}
		if strings.TrimSpace(markup) == "" {
			s.Remove()
			return
		}
		s.ReplaceWithHtml(markup)
	})
}

func isNoise(s *goquery.Selection) bool {
	class, _ := s.Attr("class")
	for _, token := range strings.Fields(class) {
		if noiseClasses[token] || strings.HasPrefix(token, "kbwc-") {
			return true
		}
		// Photo boxes share this class with related-news boxes.
		if token == "VCSortableInPreviewMode" {
			kind, _ := s.Attr("type")
			if strings.HasPrefix(kind, "Related") {
				return true
			}
		}
	}
	return false
}

func normalizeImage(img *goquery.Selection) {
	src := imageSource(img)
	if src == "" {
		img.Remove()
		return
	}
	for _, attr := range lazyAttrs {
		img.RemoveAttr(attr)
	}
	img.SetAttr("src", src)
	if _, ok := img.Attr("alt"); !ok {
		img.SetAttr("alt", "")
	}
	img.SetAttr("loading", "lazy")
	img.SetAttr("decoding", "async")
}

// imageSource returns the first usable source of img with protocol-relative
// URLs made absolute, or "" when it only has placeholders.
func imageSource(img *goquery.Selection) string {
	for _, attr := range imageSourceAttrs {
		v, ok := img.Attr(attr)
		if !ok {
			continue
		}
		if attr == "srcset" || attr == "data-srcset" {
			v = firstSrcsetCandidate(v)
		}
		v = strings.TrimSpace(v)
		if v == "" || strings.HasPrefix(v, "data:") {
			continue
		}
		return FixURL(v)
	}
	return ""
}

func firstSrcsetCandidate(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// FixURL prefixes protocol-relative URLs with https.
func FixURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

func normalizeAnchor(a *goquery.Selection) {
	a.SetAttr("target", "_blank")
	rel, _ := a.Attr("rel")
	tokens := strings.Fields(rel)
	for _, want := range []string{"noopener", "noreferrer"} {
		if !containsFold(tokens, want) {
			tokens = append(tokens, want)
		}
	}
	a.SetAttr("rel", strings.Join(tokens, " "))
}

func containsFold(tokens []string, want string) bool {
	for _, t := range tokens {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

func authorFromDoc(doc *goquery.Document) domain.AuthorInfo {
	block := doc.Find(authorSelector).First()
	if block.Length() == 0 {
		return domain.DiagnosticAuthor(NoAuthor)
	}

	name := strings.TrimSpace(block.Find(".author-info a").First().Text())
	avatar := ""
	if img := block.Find(".groupavtauthor img").First(); img.Length() > 0 {
		avatar = imageSource(img)
	}

	if name == "" && avatar == "" {
		return domain.DiagnosticAuthor(NoAuthor)
	}
	if name == "" {
		name = UnknownAuthor
	}
	if avatar == "" {
		avatar = NoAvatar
	}
	return domain.ProfileAuthor(name, avatar)
}
