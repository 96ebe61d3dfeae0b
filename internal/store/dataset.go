package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/fundscope/internal/contracts"
)

// Dataset is one uploaded sheet: fund records plus their series
type Dataset struct {
	Source string
	Funds  []contracts.Fund
	Series map[int64]contracts.ReturnSeries
}

// Validate checks id uniqueness and series quality
func (d *Dataset) Validate() error {
	if d == nil || len(d.Funds) == 0 {
		return fmt.Errorf("%w: dataset has no funds", contracts.ErrInvalidInput)
	}

	seen := make(map[int64]bool, len(d.Funds))
	for _, f := range d.Funds {
		if seen[f.ID] {
			return fmt.Errorf("%w: duplicate fund id %d", contracts.ErrInvalidInput, f.ID)
		}
		seen[f.ID] = true
	}

	for id, s := range d.Series {
		if !seen[id] {
			return fmt.Errorf("%w: series for unknown fund id %d", contracts.ErrInvalidInput, id)
		}
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// summarize computes the dataset-level counts
func (d *Dataset) summarize() contracts.DatasetSummary {
	sum := contracts.DatasetSummary{
		Source:     d.Source,
		TotalFunds: len(d.Funds),
	}
	for _, s := range d.Series {
		sum.TotalObservations += s.Len()
		if first, ok := s.First(); ok && (sum.FirstDate == nil || first.Before(sum.FirstDate.Time)) {
			sum.FirstDate = &first
		}
		if last, ok := s.Latest(); ok && (sum.LastDate == nil || last.After(sum.LastDate.Time)) {
			sum.LastDate = &last
		}
	}
	return sum
}

// FundFilter narrows ListFunds
type FundFilter struct {
	Category string
	Sector   string
	Search   string // fund_name 부분일치 (대소문자 무시)
	Skip     int
	Limit    int // 0 = 기본 100
}

// DefaultLimit caps a page when no limit is given
const DefaultLimit = 100

// FundListing is the key-field projection used in lists
type FundListing struct {
	ID            int64    `json:"fund_id"`
	Name          string   `json:"fund_name"`
	ISIN          string   `json:"isin,omitempty"`
	Firm          string   `json:"firm_name,omitempty"`
	Category      string   `json:"category,omitempty"`
	Sector        string   `json:"sector,omitempty"`
	Rating        *float64 `json:"rating"`
	ManagementFee *float64 `json:"management_fee"`
}

// FundPage is one page of a filtered listing
type FundPage struct {
	Total int           `json:"total"`
	Funds []FundListing `json:"funds"`
}

// FundDetail is a fund record with its inception date
type FundDetail struct {
	contracts.Fund
	InceptionDate *contracts.Date `json:"inception_date"`
	LatestDate    *contracts.Date `json:"latest_date"`
	Observations  int             `json:"observations"`
}

// ComparisonFields lists the static attributes shown side by side
var ComparisonFields = []string{
	"fund_id", "fund_name", "isin", "firm_name", "category", "sector",
	"management_fee", "performance_fee", "rating", "investment_area",
}

// FundComparison is the static side-by-side view
type FundComparison struct {
	Funds            []contracts.Fund `json:"funds"`
	ComparisonFields []string         `json:"comparison_fields"`
}

func listing(f contracts.Fund) FundListing {
	return FundListing{
		ID:            f.ID,
		Name:          f.Name,
		ISIN:          f.ISIN,
		Firm:          f.Firm,
		Category:      f.Category,
		Sector:        f.Sector,
		Rating:        f.Rating,
		ManagementFee: f.ManagementFee,
	}
}

func (f FundFilter) matches(fund contracts.Fund) bool {
	if f.Category != "" && fund.Category != f.Category {
		return false
	}
	if f.Sector != "" && fund.Sector != f.Sector {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(fund.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// filterFunds applies a filter and pagination to funds in id order
func filterFunds(funds []contracts.Fund, filter FundFilter) FundPage {
	matched := make([]contracts.Fund, 0, len(funds))
	for _, f := range funds {
		if filter.matches(f) {
			matched = append(matched, f)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	skip := filter.Skip
	if skip < 0 {
		skip = 0
	}

	page := FundPage{Total: len(matched), Funds: make([]FundListing, 0)}
	for i := skip; i < len(matched) && i < skip+limit; i++ {
		page.Funds = append(page.Funds, listing(matched[i]))
	}
	return page
}
