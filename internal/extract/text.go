package extract

import (
	"strings"

	"github.com/ppiankov/factlock/internal/model"
	"golang.org/x/net/html"
)

// VisibleText reduces an HTML document or fragment to the text a reader would see.
// Script, style and similar blocks are dropped along with all markup, so attribute
// values such as width="600" never reach number extraction.
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	return extractVisibleText(doc), nil
}

// PrepareDrafts returns the drafts as they should be scanned.
// With stripHTML set, the email draft is reduced to visible text; the MMS draft is
// always plain text.
func PrepareDrafts(drafts model.DraftPair, stripHTML bool) (model.DraftPair, error) {
	if !stripHTML || !looksLikeHTML(drafts.EmailDraft) {
		return drafts, nil
	}

	text, err := VisibleText(drafts.EmailDraft)
	if err != nil {
		return model.DraftPair{}, err
	}

	return model.DraftPair{
		MMSDraft:   drafts.MMSDraft,
		EmailDraft: strings.TrimSpace(text),
	}, nil
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

func looksLikeHTML(s string) bool {
	i := strings.Index(s, "<")
	return i >= 0 && strings.Contains(s[i:], ">")
}
