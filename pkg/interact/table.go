// pkg/interact/table.go
package interact

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/uitest-io/uitest/pkg/driver"
)

// ReadTable waits for the table element to become visible and returns its
// cell text as rows. Header cells (th) and data cells (td) are treated alike.
// This is a thin read helper with no retry logic of its own beyond the wait.
func (g *Gateway) ReadTable(ctx context.Context, loc driver.Locator) ([][]string, error) {
	el, err := g.Await(ctx, loc, Visible)
	if err != nil {
		return nil, err
	}
	outer, err := el.Attr(ctx, "outerHTML")
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", loc, err)
	}

	doc, err := html.Parse(strings.NewReader(outer))
	if err != nil {
		return nil, fmt.Errorf("parse table %s: %w", loc, err)
	}

	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					row = append(row, strings.TrimSpace(nodeText(c)))
				}
			}
			rows = append(rows, row)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rows, nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
