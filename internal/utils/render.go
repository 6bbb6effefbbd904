package utils

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Post text is user-written GFM. Rendered HTML is always sanitized.
var (
	postMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)
	postPolicy = newPostPolicy()
)

func newPostPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowImages()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return p
}

func renderPost(source string) (*goquery.Document, error) {
	var buf bytes.Buffer
	if err := postMarkdown.Convert([]byte(source), &buf); err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(postPolicy.SanitizeReader(&buf))
}

// RenderMarkdown returns the sanitized HTML served as a post's text_html.
// Images load lazily and send no referrer.
func RenderMarkdown(source string) string {
	doc, err := renderPost(source)
	if err != nil {
		return html.EscapeString(source)
	}
	doc.Find("img").SetAttr("loading", "lazy").SetAttr("referrerpolicy", "no-referrer")

	out, err := doc.Find("body").Html()
	if err != nil {
		return html.EscapeString(source)
	}
	return out
}

// Excerpt returns at most n runes of the post's plain text, whitespace
// collapsed.
func Excerpt(source string, n int) string {
	doc, err := renderPost(source)
	if err != nil {
		return ""
	}

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "…"
}
