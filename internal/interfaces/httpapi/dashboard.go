package httpapi

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"aavetx/internal/chains"
	"aavetx/internal/domain"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// SampleHash is shown as the input placeholder.
const SampleHash = "0x0784ff9cf55478cc6b389b0028f9d4da9556a8ca36b4ccbce4f21b2ecf756e72"

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"join":  strings.Join,
	"since": humanize.Time,
}).ParseFS(templateFS, "templates/dashboard.html"))

type dashboardRow struct {
	Time        string
	Type        string
	AssetSymbol string
	AssetAmount string
	AmountUSD   string
	AssetID     string
}

type dashboardView struct {
	Title        string
	Placeholder  string
	Hash         string
	Searched     bool
	Found        bool
	Chain        string
	User         string
	UserLink     string
	TxLink       string
	Time         string
	Age          string
	Rows         []dashboardRow
	FailedChains []string
	Error        string
	Recent       []domain.LookupRecord
}

func newDashboardView() dashboardView {
	return dashboardView{Title: "Aave transaction explorer", Placeholder: SampleHash}
}

// applyResolution fills the view from a finished lookup. Links come from
// the registry entry of the resolved chain.
func (v *dashboardView) applyResolution(res domain.Resolution, entry chains.Entry, now time.Time) {
	v.Searched = true
	v.Hash = res.Hash
	for _, chain := range res.FailedChains() {
		v.FailedChains = append(v.FailedChains, chain.String())
	}
	if !res.Found {
		return
	}
	v.Found = true
	v.Chain = res.Chain.String()
	v.TxLink = entry.TxLink(res.Hash)
	if user, ok := res.User(); ok {
		v.User = user
		v.UserLink = entry.AddressLink(user)
	}
	if ts, ok := res.Timestamp(); ok {
		v.Time = ts.UTC().Format(time.DateTime)
		v.Age = domain.HumanizeAge(ts, now)
	}
	if len(res.Rows) > 0 {
		v.Title = res.Rows[0].Type + " on " + v.Chain
	}
	v.Rows = make([]dashboardRow, 0, len(res.Rows))
	for _, row := range res.Rows {
		v.Rows = append(v.Rows, dashboardRow{
			Time:        row.Time,
			Type:        row.Type,
			AssetSymbol: row.AssetSymbol,
			AssetAmount: formatAmount(row.AssetAmount),
			AmountUSD:   formatUSD(row.AmountUSD),
			AssetID:     row.AssetID,
		})
	}
}

// formatAmount groups the digits of a whole token amount.
func formatAmount(amount decimal.Decimal) string {
	return humanize.BigComma(amount.Truncate(0).BigInt())
}

func formatUSD(amount decimal.Decimal) string {
	whole := amount.Truncate(0)
	cents := amount.Sub(whole).Abs().Shift(2).Truncate(0).IntPart()
	sign := ""
	if amount.IsNegative() && whole.IsZero() {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%02d", sign, humanize.BigComma(whole.BigInt()), cents)
}
