package parser

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// ConvertParadigm transforms a judge's paradigm HTML into Markdown for
// storage. Paradigms are free-form rich text; Markdown keeps them readable
// without carrying the site's markup along.
func ConvertParadigm(htmlContent string) (string, error) {
	if htmlContent == "" {
		return "", nil
	}

	markdown, err := htmltomarkdown.ConvertString(htmlContent)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(markdown), nil
}

// ExtractName pulls the judge name from the page header without a full
// layout parse. Used as a fallback when a layout's name selector comes up
// empty.
func ExtractName(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var textOf func(*html.Node) string
	textOf = func(n *html.Node) string {
		if n.Type == html.TextNode {
			return n.Data
		}
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			sb.WriteString(textOf(c))
		}
		return sb.String()
	}

	var findFirst func(*html.Node, string) string
	findFirst = func(n *html.Node, tag string) string {
		if n.Type == html.ElementNode && n.Data == tag {
			return textOf(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := findFirst(c, tag); found != "" {
				return found
			}
		}
		return ""
	}

	if name := cleanText(findFirst(doc, "h3")); name != "" {
		return name
	}
	return cleanText(findFirst(doc, "title"))
}
