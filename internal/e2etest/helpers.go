package e2etest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TableRows returns the trimmed cell texts of the body rows of table.
func TableRows(table *goquery.Selection) [][]string {
	var rows [][]string
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(td.Text()))
		})
		rows = append(rows, cells)
	})
	return rows
}

// FindSection returns the elements following the heading with the given text up to the next
// heading of the same level.
func FindSection(doc *goquery.Document, heading string) *goquery.Selection {
	h := doc.Find("h2").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Text()) == heading
	}).First()
	return h.NextUntil("h2")
}
