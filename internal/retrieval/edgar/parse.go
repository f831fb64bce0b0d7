package edgar

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/filinglens/pkg/models"
)

// Caption scale declarations look like
// "CONSOLIDATED STATEMENTS OF OPERATIONS - USD ($) shares in Thousands, $ in Millions".
// The shares scale is removed before scanning so it can never be mistaken
// for the money scale.
var (
	sharesScaleRe = regexp.MustCompile(`(?i)shares\s+in\s+(thousands|millions|billions)`)
	moneyScaleRe  = regexp.MustCompile(`(?i)\bin\s+(thousands|millions|billions)\b`)
	durationRe    = regexp.MustCompile(`(?i)\d+\s+months\s+ended`)
	footnoteRe    = regexp.MustCompile(`\[\d+\]`)
)

var reportDateLayouts = []string{"Jan. 2, 2006", "Jan 2, 2006", "January 2, 2006", "2006-01-02"}

// parseStatement extracts a StatementTable from a rendered financial report
// page (R*.htm). Row labels keep the filer's wording; period columns are
// normalized to ISO dates where the header parses as a calendar date.
// Parenthesized values are negative; blank and non-numeric cells are missing.
func parseStatement(html []byte, ticker string, typ models.StatementType) (*models.StatementTable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse report page: %w", err)
	}

	table := doc.Find("table.report").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("report page has no statement table")
	}

	scale := captionScale(tableCaption(table))
	periods := periodColumns(table)
	if len(periods) == 0 {
		return nil, fmt.Errorf("report page has no period columns")
	}

	st := &models.StatementTable{Ticker: ticker, Type: typ, Periods: periods}
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		labelCell := tr.Find("td.pl").First()
		if labelCell.Length() == 0 {
			return
		}
		label := cleanText(labelCell.Text())
		if label == "" {
			return
		}

		var cells []models.Cell
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			if td.HasClass("pl") || len(cells) >= len(periods) {
				return
			}
			cells = append(cells, parseCell(td.Text(), scale))
		})
		st.AddRow(label, cells...)
	})
	return st, nil
}

// tableCaption returns the text of the report's title cell.
func tableCaption(table *goquery.Selection) string {
	caption := table.Find("th.tl").First()
	if caption.Length() == 0 {
		caption = table.Find("th").First()
	}
	return cleanText(caption.Text())
}

// captionScale reads the money scale factor from the caption, defaulting
// to 1 when the caption declares none.
func captionScale(caption string) float64 {
	caption = sharesScaleRe.ReplaceAllString(caption, "")
	m := moneyScaleRe.FindStringSubmatch(caption)
	if m == nil {
		return 1
	}
	switch strings.ToLower(m[1]) {
	case "thousands":
		return 1e3
	case "millions":
		return 1e6
	case "billions":
		return 1e9
	}
	return 1
}

// periodColumns returns the statement's column labels in filed order,
// newest first. The date row is the header row with the most cells that
// parse as calendar dates. When the header groups columns by duration
// ("3 Months Ended", "9 Months Ended"), only the first group is kept:
// later groups repeat prior-period or year-to-date views of the same rows.
func periodColumns(table *goquery.Selection) []string {
	var headerRows []*goquery.Selection
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("th").Length() > 0 {
			headerRows = append(headerRows, tr)
		}
	})

	var dateRow *goquery.Selection
	bestCount := 0
	for _, tr := range headerRows {
		count := 0
		tr.Find("th.th").Each(func(_ int, th *goquery.Selection) {
			if _, ok := parseReportDate(cleanText(th.Text())); ok {
				count++
			}
		})
		if count > bestCount {
			bestCount, dateRow = count, tr
		}
	}
	if dateRow == nil {
		return nil
	}

	var periods []string
	dateRow.Find("th.th").Each(func(_ int, th *goquery.Selection) {
		text := cleanText(th.Text())
		if iso, ok := parseReportDate(text); ok {
			periods = append(periods, iso)
		} else if text != "" {
			periods = append(periods, text)
		}
	})

	limit := firstDurationSpan(headerRows)
	if limit > 0 && limit < len(periods) {
		periods = periods[:limit]
	}
	return periods
}

// firstDurationSpan returns the column span of the first duration group,
// or 0 when the header has no duration row.
func firstDurationSpan(headerRows []*goquery.Selection) int {
	for _, tr := range headerRows {
		span := 0
		tr.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
			if !durationRe.MatchString(cleanText(th.Text())) {
				return true
			}
			span = 1
			if cs, err := strconv.Atoi(th.AttrOr("colspan", "1")); err == nil && cs > 0 {
				span = cs
			}
			return false
		})
		if span > 0 {
			return span
		}
	}
	return 0
}

// parseCell converts a value cell's text to a Cell, applying the caption
// scale. "(1,234)" is -1234; anything non-numeric is a missing cell.
func parseCell(text string, scale float64) models.Cell {
	text = footnoteRe.ReplaceAllString(cleanText(text), "")
	text = strings.ReplaceAll(text, "$", "")
	text = strings.ReplaceAll(text, ",", "")
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Cell{}
	}

	negative := strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")")
	if negative {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return models.Cell{}
	}
	if negative {
		v = -v
	}
	return models.Num(v * scale)
}

// parseReportDate normalizes a header date like "Sep. 28, 2024" to ISO form.
func parseReportDate(s string) (string, bool) {
	for _, layout := range reportDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02"), true
		}
	}
	return "", false
}

// cleanText collapses runs of whitespace, including the non-breaking spaces
// report pages pad cells with.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
