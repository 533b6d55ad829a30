package searchquery

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// urlPattern matches absolute web URLs in plain text.
var urlPattern = regexp.MustCompile("https?://[^\\s\"'<>`]+")

// linkAttributes lists the attributes that hold URLs, per element.
var linkAttributes = map[string]string{
	"a":      "href",
	"link":   "href",
	"area":   "href",
	"form":   "action",
	"iframe": "src",
	"frame":  "src",
}

// extractTextURLs returns the distinct URLs found in plain text, in order of
// appearance.
func extractTextURLs(text string) []string {
	return dedupe(urlPattern.FindAllString(text, -1))
}

// extractHTMLURLs returns the distinct URLs of an HTML document: link
// attributes first, then URLs written in text and comments.
//
// Design decision: We parse with golang.org/x/net/html so that entity
// escaped attributes (&amp; in query strings) are decoded the way a browser
// would decode them before the URL is matched against the rules.
func extractHTMLURLs(document string) []string {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return extractTextURLs(document)
	}

	var urls []string
	var text strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if attr, ok := linkAttributes[n.Data]; ok {
				if v := strings.TrimSpace(getAttr(n, attr)); isWebURL(v) {
					urls = append(urls, v)
				}
			}
		case html.TextNode, html.CommentNode:
			text.WriteString(n.Data)
			text.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	urls = append(urls, urlPattern.FindAllString(text.String(), -1)...)
	return dedupe(urls)
}

// getAttr returns the value of an attribute, or "".
func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isWebURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
