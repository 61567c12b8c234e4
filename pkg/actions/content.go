package actions

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// DefaultContentLength caps ExtractContent text when no limit is given.
const DefaultContentLength = 10000

// Content is the readable text of a page.
type Content struct {
	Title       string
	Description string
	Text        string
	Truncated   bool
}

// parseContent extracts title, meta description and visible text from an
// HTML document. Text is whitespace-collapsed and cut at maxLength bytes.
func parseContent(rawHTML string, maxLength int) (*Content, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	if maxLength <= 0 {
		maxLength = DefaultContentLength
	}

	content := &Content{}
	var body strings.Builder
	walk(doc, content, &body)

	text := SanitizeText(body.String())
	if len(text) > maxLength {
		text = strings.ToValidUTF8(text[:maxLength], "")
		content.Truncated = true
	}
	content.Text = text
	return content, nil
}

func walk(n *html.Node, content *Content, body *strings.Builder) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		body.WriteString(n.Data)
		body.WriteByte(' ')
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		switch {
		case tag == "title":
			if content.Title == "" {
				content.Title = SanitizeText(nodeText(n))
			}
			return
		case tag == "meta":
			if content.Description == "" && attr(n, "name") == "description" {
				content.Description = SanitizeText(attr(n, "content"))
			}
			return
		case isHiddenElement(tag):
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, content, body)
	}
}

// isHiddenElement reports elements whose text is never shown to the reader.
func isHiddenElement(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "iframe", "embed", "object", "svg", "template":
		return true
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
