package htmlutil

import (
	"bytes"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

type Anchor struct {
	Name string
	Url  *url.URL
}

var whitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText collapses every run of whitespace (newlines included) into a
// single space, drops non-printable runes and trims the result.
func CleanText(text string) string {
	text = whitespace.ReplaceAllString(text, " ")
	text = removeNonPrintable(text)
	return strings.TrimSpace(text)
}

// ResolveHref resolves href against base, it handles absolute urls, root-relative
// paths ("/plugin.php?...") and paths relative to the base ("plugin.php?...").
func ResolveHref(base *url.URL, href string) (*url.URL, error) {
	link, err := url.Parse(strings.TrimSpace(html.UnescapeString(href)))
	if err != nil {
		return nil, err
	}
	if base == nil || link.IsAbs() {
		return link, nil
	}
	return base.ResolveReference(link), nil
}

// GetAnchors returns the anchors in sel, hrefs are resolved against base.
// Anchors without an href or with an unparsable one are skipped.
func GetAnchors(base *url.URL, sel *goquery.Selection) []Anchor {
	anchors := []Anchor{}
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}
		if href == "" {
			continue
		}

		link, err := ResolveHref(base, href)
		if err != nil {
			continue
		}

		anchors = append(anchors, Anchor{
			Name: CleanText(GetText(n)),
			Url:  link,
		})
	}

	return anchors
}

var integerRegex = regexp.MustCompile(`\d+`)

// Integers returns every run of ascii digits in text, in order.
func Integers(text string) []int {
	matches := integerRegex.FindAllString(text, -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			// overflow, the digits are not a sensible point count anyway
			continue
		}
		out = append(out, n)
	}
	return out
}
