package viewer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// ErrorBanner is shown while the last fetch has failed.
const ErrorBanner = "Failed to fetch cryptocurrency data"

// Render writes the dashboard: header, optional error banner, and the
// derived table.
func Render(w io.Writer, s *State) error {
	var b strings.Builder

	b.WriteString("Crypto Dashboard\n")
	fmt.Fprintf(&b, "Last Updated: %s", FormatTimestamp(s.LastUpdated()))
	if s.Loading() {
		b.WriteString("  (refreshing...)")
	}
	b.WriteString("\n")
	if term := s.Search(); term != "" {
		fmt.Fprintf(&b, "Search: %q\n", term)
	}

	if err := s.Err(); err != nil {
		fmt.Fprintf(&b, "! %s: %v (r to retry)\n", ErrorBanner, err)
	}
	b.WriteString("\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	if s.Loading() && s.Len() == 0 {
		_, err := io.WriteString(w, "Loading cryptocurrency data...\n")
		return err
	}

	rows := s.View()
	sortCfg := s.Sort()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Rank\t%s\t%s\t%s\t%s\t%s\tTimestamp\n",
		header("Coin", SortName, sortCfg),
		header("Symbol", SortSymbol, sortCfg),
		header("Price (USD)", SortPrice, sortCfg),
		header("Market Cap", SortMarketCap, sortCfg),
		header("24h Change", SortChange, sortCfg),
	)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			strconv.Itoa(r.Rank),
			r.Name,
			strings.ToUpper(r.Symbol),
			FormatCurrency(r.Price),
			FormatMarketCap(r.MarketCap),
			FormatPercentage(r.Change24h),
			r.Timestamp.Local().Format("15:04:05"),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rows) == 0 && !s.Loading() {
		_, err := io.WriteString(w, "\nNo cryptocurrencies found matching your search.\n")
		return err
	}
	return nil
}

func header(label string, key SortKey, cfg SortConfig) string {
	if cfg.Key != key {
		return label
	}
	if cfg.Direction == Descending {
		return label + " v"
	}
	return label + " ^"
}
