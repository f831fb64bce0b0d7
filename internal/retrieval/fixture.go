package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/seenimoa/filinglens/pkg/models"
	"github.com/seenimoa/filinglens/pkg/utils"
)

// Fixture is a Source that reads filings from a directory of JSON documents,
// one models.FilingStatements per *.json file. It backs offline analysis and
// serves as the test double for the live EDGAR source.
type Fixture struct {
	dir string
}

// NewFixture creates a fixture source rooted at dir.
func NewFixture(dir string) *Fixture {
	return &Fixture{dir: dir}
}

// Name returns the source's registry name.
func (f *Fixture) Name() string { return "fixture" }

// Statements returns the most recent fixture filing of the given form.
func (f *Fixture) Statements(ctx context.Context, ticker string, form models.FormType) (*models.FilingStatements, error) {
	history, err := f.StatementsHistory(ctx, ticker, form, 1)
	if err != nil {
		return nil, err
	}
	return history[0], nil
}

// StatementsHistory returns up to n fixture filings of the given form,
// newest first by filing date.
func (f *Fixture) StatementsHistory(ctx context.Context, ticker string, form models.FormType, n int) ([]*models.FilingStatements, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read fixture dir %s: %w", f.dir, err)
	}

	var matched []*models.FilingStatements
	tickerSeen := false
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(f.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", path, err)
		}

		var fs models.FilingStatements
		if err := json.Unmarshal(data, &fs); err != nil {
			return nil, fmt.Errorf("parse fixture %s: %w", path, err)
		}
		if !utils.SameSymbol(fs.Meta.Ticker, ticker) {
			continue
		}
		tickerSeen = true
		if fs.Meta.FormType != form {
			continue
		}

		for _, table := range []*models.StatementTable{fs.Balance, fs.Income, fs.CashFlow} {
			if table == nil {
				continue
			}
			if err := table.Validate(); err != nil {
				return nil, fmt.Errorf("fixture %s: %w", path, err)
			}
		}
		matched = append(matched, &fs)
	}

	if len(matched) == 0 {
		if tickerSeen {
			return nil, fmt.Errorf("%s %s: %w", ticker, form, ErrNoFilings)
		}
		return nil, fmt.Errorf("%s: %w", ticker, ErrTickerNotFound)
	}

	// Newest first; accession number breaks filing-date ties.
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Meta.FilingDate != matched[j].Meta.FilingDate {
			return matched[i].Meta.FilingDate > matched[j].Meta.FilingDate
		}
		return matched[i].Meta.AccessionNumber > matched[j].Meta.AccessionNumber
	})
	if n > 0 && len(matched) > n {
		matched = matched[:n]
	}
	return matched, nil
}
