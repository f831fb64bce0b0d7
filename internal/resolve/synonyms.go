package resolve

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SynonymSet maps each concept to its label patterns in priority order.
// Patterns are matched as case-insensitive substrings against row labels;
// earlier patterns encode stronger preference. XBRL tag spellings come first
// because they are unambiguous, followed by specific textual labels, with
// loose single-word forms last.
type SynonymSet map[Concept][]string

// DefaultSynonyms returns the built-in catalogue covering common GAAP and
// IFRS labelings.
func DefaultSynonyms() SynonymSet {
	return SynonymSet{
		Revenue: {
			"us-gaap:RevenueFromContractWithCustomerExcludingAssessedTax",
			"us-gaap_RevenueFromContractWithCustomerExcludingAssessedTax",
			"us-gaap:SalesRevenueNet",
			"us-gaap:Revenues",
			"Total net sales",
			"Total revenue",
			"Net sales",
			"Net revenue",
			"Operating revenue",
			"Revenues",
			"Revenue",
		},
		CostOfRevenue: {
			"us-gaap:CostOfGoodsAndServicesSold",
			"us-gaap:CostOfRevenue",
			"Cost of revenue",
			"Cost of sales",
			"Cost of goods sold",
		},
		GrossProfit: {
			"us-gaap:GrossProfit",
			"Gross profit",
			"Gross margin",
		},
		OperatingExpenses: {
			"us-gaap:OperatingExpenses",
			"Total operating expenses",
			"Operating expenses",
			"Operating expense",
		},
		OperatingIncome: {
			"us-gaap:OperatingIncomeLoss",
			"Operating income",
			"Operating profit",
			"Income from operations",
		},
		DepreciationAmortization: {
			"us-gaap:DepreciationDepletionAndAmortization",
			"us-gaap:DepreciationAndAmortization",
			"Depreciation and amortization",
			"Depreciation, amortization",
			"Depreciation",
		},
		InterestExpense: {
			"us-gaap:InterestExpense",
			"Interest expense, net",
			"Interest expense",
		},
		IncomeTax: {
			"us-gaap:IncomeTaxExpenseBenefit",
			"Provision for income taxes",
			"Income tax expense",
			"Tax expense",
		},
		NetIncome: {
			"us-gaap:NetIncomeLoss",
			"Net income",
			"Net earnings",
			"Net loss",
			"Income (loss) from continuing operations",
		},
		CurrentAssets: {
			"us-gaap:AssetsCurrent",
			"Total current assets",
			"Assets, current",
		},
		CurrentLiabilities: {
			"us-gaap:LiabilitiesCurrent",
			"Total current liabilities",
			"Liabilities, current",
		},
		TotalAssets: {
			"us-gaap:Assets",
			"Total assets",
		},
		TotalLiabilities: {
			"us-gaap:Liabilities",
			"Total liabilities",
		},
		TotalDebt: {
			// Combined total-debt lines first, then the long-term component
			// that most filers report when no combined line exists.
			"us-gaap:DebtLongtermAndShorttermCombinedAmount",
			"Total debt",
			"Total borrowings",
			"us-gaap:LongTermDebt",
			"Long-term debt",
			"Term debt",
			"Short-term borrowings",
		},
		TotalEquity: {
			"us-gaap:StockholdersEquity",
			"Total shareholders' equity",
			"Total shareholders’ equity",
			"Total stockholders' equity",
			"Shareholders' equity",
			"Stockholders' equity",
			"Total equity",
		},
		CashEquivalents: {
			"us-gaap:CashAndCashEquivalentsAtCarryingValue",
			"Cash and cash equivalents",
			"Cash, cash equivalents",
		},
		Inventory: {
			"us-gaap:InventoryNet",
			"Inventories",
			"Inventory, net",
			"Inventory",
		},
		Receivables: {
			"us-gaap:AccountsReceivableNetCurrent",
			"Accounts receivable, net",
			"Accounts receivable",
			"Trade receivables",
			"Receivables",
		},
		Goodwill: {
			"us-gaap:Goodwill",
			"Goodwill",
		},
		IntangibleAssets: {
			"us-gaap:IntangibleAssetsNetExcludingGoodwill",
			"Intangible assets, net",
			"Acquired intangible assets",
			"Intangible assets",
		},
		LeaseLiabilities: {
			"us-gaap:OperatingLeaseLiability",
			"Operating lease liabilities",
			"Finance lease liabilities",
			"Lease liabilities",
		},
		OperatingCashFlow: {
			"us-gaap:NetCashProvidedByUsedInOperatingActivities",
			"Cash generated by operating activities",
			"Net cash provided by operating activities",
			"Cash from operating activities",
			"Cash from/(used in) operating activities",
		},
		NetCashInvesting: {
			"us-gaap:NetCashProvidedByUsedInInvestingActivities",
			"Cash generated by/(used in) investing activities",
			"Net cash used in investing activities",
			"Cash from investing activities",
			"Cash from/(used in) investing activities",
		},
		Capex: {
			"us-gaap:PaymentsToAcquirePropertyPlantAndEquipment",
			"Capital expenditures",
			"Capital expenditure",
			"Purchases of property, plant and equipment",
			"Purchase of property, plant, and equipment",
			"Purchase of property and equipment",
			"Additions to property, plant and equipment",
			"Purchase of fixed assets",
			"Capital asset purchases",
			"Capex",
		},
		IntangiblePurchases: {
			"us-gaap:PaymentsToAcquireIntangibleAssets",
			"Payments for acquisition of intangible assets",
			"Purchases of intangible assets",
			"Purchase of intangibles",
		},
		Acquisitions: {
			"us-gaap:PaymentsToAcquireBusinessesNetOfCashAcquired",
			"Payments made in connection with business acquisitions",
			"Acquisitions, net of cash acquired",
			"Business acquisitions",
		},
	}
}

// Clone deep-copies the set so callers can layer overrides without touching
// the source.
func (s SynonymSet) Clone() SynonymSet {
	out := make(SynonymSet, len(s))
	for c, patterns := range s {
		out[c] = append([]string(nil), patterns...)
	}
	return out
}

// Merge prepends the override patterns of each concept ahead of the
// receiver's, returning a new set. User-supplied labelings outrank the
// built-in catalogue.
func (s SynonymSet) Merge(overrides SynonymSet) SynonymSet {
	out := s.Clone()
	for c, patterns := range overrides {
		out[c] = append(append([]string(nil), patterns...), out[c]...)
	}
	return out
}

// LoadSynonymsFile reads a YAML mapping of concept name to pattern list, for
// layering filer-specific labelings over the defaults:
//
//	REVENUE:
//	  - "Turnover"
//	INVENTORY:
//	  - "Stocks"
func LoadSynonymsFile(path string) (SynonymSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms file: %w", err)
	}
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse synonyms file %s: %w", path, err)
	}
	out := make(SynonymSet, len(raw))
	for name, patterns := range raw {
		c := Concept(name)
		if !Valid(c) {
			return nil, fmt.Errorf("synonyms file %s: unknown concept %q", path, name)
		}
		out[c] = patterns
	}
	return out, nil
}
