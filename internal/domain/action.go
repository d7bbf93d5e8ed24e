package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ActionKind is the plural entity name the lending subgraph uses for an event list.
type ActionKind string

const (
	KindWithdraws  ActionKind = "withdraws"
	KindDeposits   ActionKind = "deposits"
	KindBorrows    ActionKind = "borrows"
	KindRepays     ActionKind = "repays"
	KindLiquidates ActionKind = "liquidates"
)

// ActionKinds lists every kind in display order.
var ActionKinds = []ActionKind{KindWithdraws, KindDeposits, KindBorrows, KindRepays, KindLiquidates}

// Label returns the singular, capitalised name shown in the Type column.
func (k ActionKind) Label() string {
	name := strings.TrimSuffix(string(k), "s")
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// HasAccount reports whether records of this kind carry an account.
func (k ActionKind) HasAccount() bool {
	return k != KindLiquidates
}

type Asset struct {
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	ID       string `json:"id"`
}

type Account struct {
	ID string `json:"id"`
}

// ActionRecord is one event as returned by the indexing service.
type ActionRecord struct {
	ID        string          `json:"id"`
	Hash      string          `json:"hash"`
	Timestamp string          `json:"timestamp"`
	Amount    string          `json:"amount"`
	AmountUSD decimal.Decimal `json:"amountUSD"`
	Asset     Asset           `json:"asset"`
	Account   *Account        `json:"account,omitempty"`
}

// RawResult is the data payload of a combined lookup query.
type RawResult struct {
	Withdraws  []ActionRecord `json:"withdraws"`
	Deposits   []ActionRecord `json:"deposits"`
	Borrows    []ActionRecord `json:"borrows"`
	Repays     []ActionRecord `json:"repays"`
	Liquidates []ActionRecord `json:"liquidates"`
}

func (r RawResult) Records(kind ActionKind) []ActionRecord {
	switch kind {
	case KindWithdraws:
		return r.Withdraws
	case KindDeposits:
		return r.Deposits
	case KindBorrows:
		return r.Borrows
	case KindRepays:
		return r.Repays
	case KindLiquidates:
		return r.Liquidates
	}
	return nil
}

func (r RawResult) Empty() bool {
	for _, kind := range ActionKinds {
		if len(r.Records(kind)) > 0 {
			return false
		}
	}
	return true
}

// ActionRow is a display-ready action. User is nil for liquidations.
type ActionRow struct {
	Time        string          `json:"time"`
	Timestamp   time.Time       `json:"timestamp"`
	Kind        ActionKind      `json:"kind"`
	Type        string          `json:"type"`
	AssetSymbol string          `json:"asset_symbol"`
	TxHash      string          `json:"transaction_hash"`
	AssetID     string          `json:"asset_id"`
	AssetAmount decimal.Decimal `json:"asset_amount"`
	AmountUSD   decimal.Decimal `json:"amount_usd"`
	User        *string         `json:"user,omitempty"`
}
