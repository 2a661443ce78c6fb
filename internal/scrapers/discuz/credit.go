package discuz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"acgfun-checkin/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"
)

// the credit summary element carries exactly these classes, in this order
const creditMarker = `[class="xi1 cl"]`

type creditReading struct {
	balance int
	earned  int
	// hasEarned is set when the reading also carries today's earnings.
	hasEarned bool
}

type creditTier struct {
	name string
	read func(doc *goquery.Document, pointName string) (creditReading, bool)
}

// creditTiers are tried in order, the first one that extracts a number wins.
var creditTiers = []creditTier{
	{name: "marker", read: readCreditMarker},
	{name: "marker-surroundings", read: readCreditSurroundings},
	{name: "text-search", read: readCreditText},
}

func readCreditMarker(doc *goquery.Document, pointName string) (creditReading, bool) {
	var reading creditReading
	found := false
	doc.Find(creditMarker).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := el.Text()
		if !strings.Contains(text, pointName) {
			return true
		}
		numbers := htmlutil.Integers(text)
		if len(numbers) == 0 {
			return true
		}
		reading.balance = numbers[0]
		if len(numbers) > 1 {
			reading.earned = numbers[1]
			reading.hasEarned = true
		}
		found = true
		return false
	})
	return reading, found
}

func firstIntegerWith(text, pointName string) (int, bool) {
	if !strings.Contains(text, pointName) {
		return 0, false
	}
	numbers := htmlutil.Integers(text)
	if len(numbers) == 0 {
		return 0, false
	}
	return numbers[0], true
}

func readCreditSurroundings(doc *goquery.Document, pointName string) (creditReading, bool) {
	var reading creditReading
	found := false
	doc.Find(creditMarker).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if n, ok := firstIntegerWith(el.Parent().Text(), pointName); ok {
			reading.balance = n
			found = true
			return false
		}
		el.NextAll().EachWithBreak(func(_ int, sibling *goquery.Selection) bool {
			if n, ok := firstIntegerWith(sibling.Text(), pointName); ok {
				reading.balance = n
				found = true
				return false
			}
			return true
		})
		return !found
	})
	return reading, found
}

func nextElementSibling(node *html.Node) *html.Node {
	for s := node.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func readCreditText(doc *goquery.Document, pointName string) (creditReading, bool) {
	var textNodes []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && strings.Contains(n.Data, pointName) {
			textNodes = append(textNodes, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, root := range doc.Nodes {
		walk(root)
	}

	for _, text := range textNodes {
		parent := text.Parent
		if parent == nil {
			continue
		}
		numbers := htmlutil.Integers(htmlutil.GetText(parent))
		if len(numbers) > 0 {
			return creditReading{balance: numbers[0]}, true
		}
		sibling := nextElementSibling(parent)
		if sibling == nil {
			continue
		}
		numbers = htmlutil.Integers(htmlutil.GetText(sibling))
		if len(numbers) > 0 {
			return creditReading{balance: numbers[0]}, true
		}
	}
	return creditReading{}, false
}

func readCredit(doc *goquery.Document, pointName string) (creditReading, bool) {
	for _, tier := range creditTiers {
		reading, ok := tier.read(doc, pointName)
		if ok {
			return reading, true
		}
	}
	return creditReading{}, false
}

// ParseCredits extracts the balance of pointName from the body of the credit
// page, it returns ErrCreditNotFound when no tier finds it.
func ParseCredits(body, pointName string) (CreditInfo, error) {
	reading, ok := readCredit(newPage(body).doc, pointName)
	if !ok {
		return CreditInfo{}, ErrCreditNotFound
	}
	info := CreditInfo{
		Balances:    map[string]int{pointName: reading.balance},
		EarnedToday: map[string]int{},
	}
	if reading.hasEarned {
		info.EarnedToday[pointName] = reading.earned
	}
	return info, nil
}

func (c *Client) ReadCredits(ctx context.Context, pointName string) (CreditInfo, error) {
	ctx, span := tracer.Start(ctx, "ReadCredits")
	defer span.End()

	if pointName == "" {
		pointName = c.opts.PointName
	}
	span.SetAttributes(attribute.String("point_name", pointName))

	p, err := c.fetch(ctx, CreditPath)
	if err != nil {
		c.tel.ReportBroken(report_client_read_credits, fmt.Errorf("fetch credit page: %w", err))
		return CreditInfo{}, err
	}

	info, err := ParseCredits(p.body, pointName)
	if errors.Is(err, ErrCreditNotFound) {
		c.tel.ReportWarning(
			report_client_read_credits,
			err,
			pointName,
			fmt.Sprintf("page mentions point name: %v", p.has(pointName)),
		)
		return CreditInfo{}, err
	}
	c.tel.ReportDebug("read credits", pointName, info.Balances[pointName])
	return info, err
}

// ReadBalance returns the current balance of pointName.
func (c *Client) ReadBalance(ctx context.Context, pointName string) (int, error) {
	info, err := c.ReadCredits(ctx, pointName)
	if err != nil {
		return 0, err
	}
	if pointName == "" {
		pointName = c.opts.PointName
	}
	return info.Balances[pointName], nil
}
