package edgar

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/filinglens/internal/infra"
	"github.com/seenimoa/filinglens/internal/retrieval"
	"github.com/seenimoa/filinglens/pkg/models"
	"github.com/seenimoa/filinglens/pkg/utils"
)

const tickerTableKey = "company_tickers"

// Source implements retrieval.Source against live SEC EDGAR: symbol→CIK
// resolution through the company tickers file, filing discovery through the
// browse Atom feed, and statement extraction from the rendered financial
// report pages of each filing.
type Source struct {
	client  *Client
	tickers *infra.Cache[map[string]cikRecord]
}

type cikRecord struct {
	CIK   string // numeric form without leading zeros, as used in archive paths
	Title string
}

// NewSource creates an EDGAR source on top of client.
func NewSource(client *Client) *Source {
	return &Source{
		client:  client,
		tickers: infra.NewCache[map[string]cikRecord](24 * time.Hour),
	}
}

// Name returns the source's registry name.
func (s *Source) Name() string { return "edgar" }

// Statements returns the statements of the most recent filing of the form.
func (s *Source) Statements(ctx context.Context, ticker string, form models.FormType) (*models.FilingStatements, error) {
	history, err := s.StatementsHistory(ctx, ticker, form, 1)
	if err != nil {
		return nil, err
	}
	return history[0], nil
}

// StatementsHistory returns the statements of up to n recent filings of the
// form, newest first. Filings whose financial report pages are absent (EDGAR
// stopped rendering them only for very old filings) are skipped.
func (s *Source) StatementsHistory(ctx context.Context, ticker string, form models.FormType, n int) ([]*models.FilingStatements, error) {
	ticker = utils.NormalizeTicker(ticker)
	if !utils.ValidTicker(ticker) {
		return nil, fmt.Errorf("invalid ticker %q", ticker)
	}
	if n <= 0 {
		n = 1
	}

	rec, err := s.lookupCIK(ctx, ticker)
	if err != nil {
		return nil, err
	}

	refs, err := s.discoverFilings(ctx, rec.CIK, form, n)
	if err != nil {
		return nil, err
	}

	var out []*models.FilingStatements
	for _, ref := range refs {
		fs, err := s.buildFiling(ctx, ticker, rec, form, ref)
		if err != nil {
			if isMissing(err) {
				continue
			}
			return nil, err
		}
		out = append(out, fs)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s %s: %w", ticker, form, retrieval.ErrNoFilings)
	}
	return out, nil
}

// lookupCIK resolves a ticker symbol through the SEC company tickers file.
// The parsed table is cached for a day; the raw response additionally sits
// in the client's disk cache.
func (s *Source) lookupCIK(ctx context.Context, ticker string) (cikRecord, error) {
	table, ok := s.tickers.Get(tickerTableKey)
	if !ok {
		data, err := s.client.get(ctx, s.client.baseURL+"/files/company_tickers.json")
		if err != nil {
			return cikRecord{}, fmt.Errorf("fetch company tickers: %w", err)
		}

		var entries map[string]tickerEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return cikRecord{}, fmt.Errorf("parse company tickers: %w", err)
		}

		table = make(map[string]cikRecord, len(entries))
		for _, e := range entries {
			table[symbolKey(e.Ticker)] = cikRecord{CIK: strconv.Itoa(e.CIK), Title: e.Title}
		}
		s.tickers.Set(tickerTableKey, table)
	}

	rec, ok := table[symbolKey(ticker)]
	if !ok {
		return cikRecord{}, fmt.Errorf("%s: %w", ticker, retrieval.ErrTickerNotFound)
	}
	return rec, nil
}

// tickerEntry is one record of the SEC company tickers file:
// {"0":{"cik_str":320193,"ticker":"AAPL","title":"Apple Inc."}, ...}
type tickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// symbolKey folds class separators so "BRK.B" finds EDGAR's "BRK-B" listing.
func symbolKey(ticker string) string {
	return strings.ReplaceAll(utils.NormalizeTicker(ticker), "-", ".")
}

// filingRef identifies one filing discovered in the browse feed.
type filingRef struct {
	accession string
	date      string
}

// discoverFilings lists up to n recent filings of the form via the EDGAR
// browse Atom feed, newest first.
func (s *Source) discoverFilings(ctx context.Context, cik string, form models.FormType, n int) ([]filingRef, error) {
	// The feed interleaves amendments with the requested form, so ask for
	// headroom beyond n.
	count := n * 2
	if count < 10 {
		count = 10
	}
	if count > 40 {
		count = 40
	}

	u := fmt.Sprintf("%s/cgi-bin/browse-edgar?action=getcompany&CIK=%s&type=%s&dateb=&owner=include&count=%d&output=atom",
		s.client.baseURL, padCIK(cik), url.QueryEscape(string(form)), count)
	data, err := s.client.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch filing feed: %w", err)
	}

	feed, err := gofeed.NewParser().ParseString(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse filing feed: %w", err)
	}

	var refs []filingRef
	for _, item := range feed.Items {
		if !matchesForm(item, form) {
			continue
		}
		accession := accessionFromID(item.GUID)
		if accession == "" {
			continue
		}

		date := ""
		if item.UpdatedParsed != nil {
			date = item.UpdatedParsed.Format("2006-01-02")
		} else if item.PublishedParsed != nil {
			date = item.PublishedParsed.Format("2006-01-02")
		}

		refs = append(refs, filingRef{accession: accession, date: date})
		if len(refs) == n {
			break
		}
	}
	return refs, nil
}

// matchesForm checks the entry's form-type category against the requested
// form. Exact matches only: "10-K/A" never satisfies a "10-K" request.
func matchesForm(item *gofeed.Item, form models.FormType) bool {
	for _, c := range item.Categories {
		if strings.EqualFold(c, string(form)) {
			return true
		}
	}
	return len(item.Categories) == 0 && strings.HasPrefix(item.Title, string(form)+" ")
}

// accessionFromID extracts "0000320193-24-000123" from an entry ID like
// "urn:tag:sec.gov,2008:accession-number=0000320193-24-000123".
func accessionFromID(id string) string {
	const marker = "accession-number="
	i := strings.LastIndex(id, marker)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(id[i+len(marker):])
}

// filingSummary mirrors the filing's FilingSummary.xml report index.
type filingSummary struct {
	Reports []summaryReport `xml:"MyReports>Report"`
}

type summaryReport struct {
	HTMLFileName string `xml:"HtmlFileName"`
	ShortName    string `xml:"ShortName"`
	MenuCategory string `xml:"MenuCategory"`
}

// buildFiling fetches a filing's report index and extracts its three
// financial statements. A statement whose report page is missing stays nil.
func (s *Source) buildFiling(ctx context.Context, ticker string, rec cikRecord, form models.FormType, ref filingRef) (*models.FilingStatements, error) {
	base := fmt.Sprintf("%s/Archives/edgar/data/%s/%s",
		s.client.baseURL, rec.CIK, strings.ReplaceAll(ref.accession, "-", ""))

	data, err := s.client.get(ctx, base+"/FilingSummary.xml")
	if err != nil {
		return nil, fmt.Errorf("fetch filing summary %s: %w", ref.accession, err)
	}
	var summary filingSummary
	if err := xml.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("parse filing summary %s: %w", ref.accession, err)
	}

	fs := &models.FilingStatements{
		Meta: models.FilingMetadata{
			Ticker:          ticker,
			CompanyName:     rec.Title,
			FormType:        form,
			FilingDate:      ref.date,
			AccessionNumber: ref.accession,
		},
	}

	files := classifyReports(summary.Reports)
	for _, typ := range []models.StatementType{models.StatementBalance, models.StatementIncome, models.StatementCashFlow} {
		file, ok := files[typ]
		if !ok {
			continue
		}
		page, err := s.client.get(ctx, base+"/"+file)
		if err != nil {
			if isMissing(err) {
				continue
			}
			return nil, fmt.Errorf("fetch %s %s: %w", typ, ref.accession, err)
		}
		table, err := parseStatement(page, ticker, typ)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", typ, ref.accession, err)
		}

		switch typ {
		case models.StatementBalance:
			fs.Balance = table
		case models.StatementIncome:
			fs.Income = table
		case models.StatementCashFlow:
			fs.CashFlow = table
		}
	}
	return fs, nil
}

// classifyReports picks the report page of each financial statement from the
// filing's report index by short-name keywords. The first match per
// statement wins; parenthetical pages and the separate comprehensive income
// statement are never candidates.
func classifyReports(reports []summaryReport) map[models.StatementType]string {
	files := make(map[models.StatementType]string, 3)
	for _, r := range reports {
		if r.HTMLFileName == "" {
			continue
		}
		if r.MenuCategory != "" && !strings.EqualFold(r.MenuCategory, "Statements") {
			continue
		}
		name := strings.ToLower(r.ShortName)
		if strings.Contains(name, "parenthetical") {
			continue
		}

		var typ models.StatementType
		switch {
		case strings.Contains(name, "balance sheet") || strings.Contains(name, "financial position"):
			typ = models.StatementBalance
		case strings.Contains(name, "cash flow"):
			typ = models.StatementCashFlow
		case strings.Contains(name, "comprehensive"):
			continue
		case strings.Contains(name, "operations") || strings.Contains(name, "income") || strings.Contains(name, "earnings"):
			typ = models.StatementIncome
		default:
			continue
		}
		if _, taken := files[typ]; !taken {
			files[typ] = r.HTMLFileName
		}
	}
	return files
}

// padCIK pads a CIK number to 10 digits with leading zeros.
func padCIK(cik string) string {
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}

func isMissing(err error) bool {
	var httpErr *retrieval.ErrHTTP
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}
