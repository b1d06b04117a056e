package viewer

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/rickgao/coinboard/internal/model"
)

// SortKey names a sortable column.
type SortKey string

// Sortable columns.
const (
	SortNone      SortKey = ""
	SortName      SortKey = "name"
	SortSymbol    SortKey = "symbol"
	SortPrice     SortKey = "price"
	SortMarketCap SortKey = "marketCap"
	SortChange    SortKey = "change24h"
)

// SortKeys lists the sortable columns in display order.
var SortKeys = []SortKey{SortName, SortSymbol, SortPrice, SortMarketCap, SortChange}

// ParseSortKey resolves a column name, case-insensitively.
func ParseSortKey(s string) (SortKey, error) {
	for _, k := range SortKeys {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return SortNone, fmt.Errorf("unknown sort column %q", s)
}

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortConfig is the active sort column and direction.
type SortConfig struct {
	Key       SortKey
	Direction Direction
}

// Row is one line of the derived view.
type Row struct {
	Rank int // Position in the fetched dataset, 1-based
	model.CoinRecord
}

// State is the client's local state. It is safe for concurrent use.
type State struct {
	mu          sync.RWMutex
	coins       []model.CoinRecord
	lastUpdated time.Time
	loading     bool
	err         error
	search      string
	sort        SortConfig
}

// NewState returns an empty State with no sort column.
func NewState() *State {
	return &State{}
}

// SetData stores a successfully fetched dataset and clears the error flag.
func (s *State) SetData(records []model.CoinRecord, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coins = model.CloneRecords(records)
	s.lastUpdated = at
	s.err = nil
}

// SetError records a failed fetch. The previous dataset is kept.
func (s *State) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Err returns the last fetch error, nil after a successful fetch.
func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *State) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// Loading reports whether a fetch is in flight.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastUpdated returns the time of the last successful fetch, zero if none.
func (s *State) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// Len returns the size of the unfiltered dataset.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.coins)
}

// SetSearch sets the search term.
func (s *State) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = term
}

// Search returns the search term.
func (s *State) Search() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

// ClickSort selects key as the sort column. Selecting the active ascending
// column flips it to descending; anything else sorts key ascending.
func (s *State) ClickSort(key SortKey) SortConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := Ascending
	if s.sort.Key == key && s.sort.Direction == Ascending {
		dir = Descending
	}
	s.sort = SortConfig{Key: key, Direction: dir}
	return s.sort
}

// Sort returns the active sort.
func (s *State) Sort() SortConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sort
}

// View derives the rows to display: the dataset filtered by the search term
// against name or symbol, then sorted by the active column. Rows with equal
// sort values keep their dataset order.
func (s *State) View() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fold := cases.Fold()
	term := fold.String(s.search)

	rows := make([]Row, 0, len(s.coins))
	for i, c := range s.coins {
		if strings.Contains(fold.String(c.Name), term) || strings.Contains(fold.String(c.Symbol), term) {
			rows = append(rows, Row{Rank: i + 1, CoinRecord: c})
		}
	}

	if s.sort.Key == SortNone {
		return rows
	}

	cmp := comparator(s.sort.Key)
	desc := s.sort.Direction == Descending
	sort.SliceStable(rows, func(i, j int) bool {
		if desc {
			return cmp(rows[j].CoinRecord, rows[i].CoinRecord)
		}
		return cmp(rows[i].CoinRecord, rows[j].CoinRecord)
	})
	return rows
}

// comparator returns a strict less-than for key. Strings compare
// case-insensitively, numbers directly. An unknown 24h change sorts as 0.
func comparator(key SortKey) func(a, b model.CoinRecord) bool {
	switch key {
	case SortName:
		return func(a, b model.CoinRecord) bool { return foldLess(a.Name, b.Name) }
	case SortSymbol:
		return func(a, b model.CoinRecord) bool { return foldLess(a.Symbol, b.Symbol) }
	case SortPrice:
		return func(a, b model.CoinRecord) bool { return a.Price < b.Price }
	case SortMarketCap:
		return func(a, b model.CoinRecord) bool { return a.MarketCap < b.MarketCap }
	case SortChange:
		return func(a, b model.CoinRecord) bool { return a.ChangeOrZero() < b.ChangeOrZero() }
	default:
		return func(a, b model.CoinRecord) bool { return false }
	}
}

func foldLess(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) < fold.String(b)
}
