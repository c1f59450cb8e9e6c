package convert

import (
	"bytes"
	"net/url"
	"os"
	"strings"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/markdownd/markdownd/internal/ingest"
	"github.com/markdownd/markdownd/internal/xerrors"
)

// readability resolves relative links against a page URL; downloaded
// artifacts have no original address, so a placeholder is used.
var placeholderPageURL = &url.URL{Scheme: "https", Host: "localhost"}

// convertHTML renders an HTML document as markdown. With plugins enabled
// the readability pass strips navigation, ads, and boilerplate first; the
// title always comes from the document itself.
func (c *Converter) convertHTML(path string, plugins bool) (ingest.ConvertResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ingest.ConvertResult{}, xerrors.Wrap(err, "read html artifact")
	}

	title := htmlTitle(raw)
	source := string(raw)

	if plugins {
		article, err := readability.FromReader(bytes.NewReader(raw), placeholderPageURL)
		if err == nil && strings.TrimSpace(article.Content) != "" {
			source = article.Content
			if title == "" {
				title = strings.TrimSpace(article.Title)
			}
		}
		// a failed readability pass falls back to the full document
	}

	markdown, err := c.htmlConv.ConvertString(source)
	if err != nil {
		return ingest.ConvertResult{}, xerrors.Wrap(err, "render html as markdown")
	}

	markdown = strings.TrimSpace(markdown)
	if title == "" {
		title = firstHeading(markdown)
	}
	return ingest.ConvertResult{Markdown: markdown, Title: title}, nil
}

// htmlTitle returns the document's <title> text, or "".
func htmlTitle(raw []byte) string {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return title
}

// firstHeading returns the text of the first level-one heading in markdown.
func firstHeading(markdown string) string {
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
