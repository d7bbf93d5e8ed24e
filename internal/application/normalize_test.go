package application

import (
	"reflect"
	"testing"

	"aavetx/internal/domain"

	"github.com/shopspring/decimal"
)

func record(id, amount string, decimals int, account string) domain.ActionRecord {
	rec := domain.ActionRecord{
		ID:        id,
		Hash:      "0xhash",
		Timestamp: "1650000000",
		Amount:    amount,
		AmountUSD: decimal.RequireFromString("42.5"),
		Asset:     domain.Asset{Symbol: "USDC", Decimals: decimals, ID: "0xusdc"},
	}
	if account != "" {
		rec.Account = &domain.Account{ID: account}
	}
	return rec
}

func TestScaleAmountTruncates(t *testing.T) {
	cases := []struct {
		raw      string
		decimals int
		want     string
	}{
		{"123456", 4, "12"},
		{"5000000000000000000", 18, "5"},
		{"999999", 6, "0"},
		{"123456789012345678901234567890", 18, "123456789012"},
		{"-123456", 4, "-12"},
		{"7", 0, "7"},
	}
	for _, tc := range cases {
		got, err := ScaleAmount(tc.raw, tc.decimals)
		if err != nil {
			t.Errorf("%s/%d: unexpected error %v", tc.raw, tc.decimals, err)
			continue
		}
		if got.String() != tc.want {
			t.Errorf("%s/%d: expected %s, got %s", tc.raw, tc.decimals, tc.want, got.String())
		}
	}
}

func TestScaleAmountRejectsBadInput(t *testing.T) {
	if _, err := ScaleAmount("12.5", 2); err == nil {
		t.Errorf("expected error for fractional amount")
	}
	if _, err := ScaleAmount("abc", 2); err == nil {
		t.Errorf("expected error for non-numeric amount")
	}
	if _, err := ScaleAmount("100", -1); err == nil {
		t.Errorf("expected error for negative decimals")
	}
}

func TestNormalizeOrderAndLabels(t *testing.T) {
	raw := domain.RawResult{
		Liquidates: []domain.ActionRecord{record("l1", "100", 0, "")},
		Repays:     []domain.ActionRecord{record("r1", "100", 0, "0xa")},
		Borrows:    []domain.ActionRecord{record("b1", "100", 0, "0xa")},
		Deposits:   []domain.ActionRecord{record("d1", "100", 0, "0xa")},
		Withdraws:  []domain.ActionRecord{record("w1", "100", 0, "0xa")},
	}
	rows, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	want := []string{"Withdraw", "Deposit", "Borrow", "Repay", "Liquidate"}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i, row := range rows {
		if row.Type != want[i] {
			t.Errorf("row %d: expected %s, got %s", i, want[i], row.Type)
		}
	}
}

func TestNormalizeRowFields(t *testing.T) {
	raw := domain.RawResult{Deposits: []domain.ActionRecord{record("d1", "123456", 4, "0xuser")}}
	rows, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	row := rows[0]
	if row.Time != "04/15/2022, 05:20:00" {
		t.Errorf("unexpected display time %s", row.Time)
	}
	if row.Timestamp.Location().String() != "UTC" || row.Timestamp.Unix() != 1650000000 {
		t.Errorf("unexpected timestamp %v", row.Timestamp)
	}
	if row.AssetAmount.String() != "12" {
		t.Errorf("expected scaled amount 12, got %s", row.AssetAmount)
	}
	if row.AmountUSD.String() != "42.5" {
		t.Errorf("expected usd 42.5, got %s", row.AmountUSD)
	}
	if row.User == nil || *row.User != "0xuser" {
		t.Errorf("expected user 0xuser")
	}
	if row.AssetSymbol != "USDC" || row.AssetID != "0xusdc" || row.TxHash != "0xhash" {
		t.Errorf("fields not copied through: %+v", row)
	}
}

func TestNormalizeLiquidateHasNoUser(t *testing.T) {
	// an account on a liquidation is ignored as well
	raw := domain.RawResult{Liquidates: []domain.ActionRecord{
		record("l1", "100", 0, ""),
		record("l2", "100", 0, "0xliquidator"),
	}}
	rows, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	for _, row := range rows {
		if row.User != nil {
			t.Errorf("liquidate row %s carries a user", row.Type)
		}
	}
}

func TestNormalizeSkipsMalformedRecords(t *testing.T) {
	bad := record("w1", "100", 0, "0xa")
	bad.Timestamp = "yesterday"
	raw := domain.RawResult{
		Withdraws: []domain.ActionRecord{bad},
		Deposits:  []domain.ActionRecord{record("d1", "100", 0, "0xa")},
	}
	rows, err := Normalize(raw)
	if err == nil {
		t.Errorf("expected an error for the malformed record")
	}
	if len(rows) != 1 || rows[0].Type != "Deposit" {
		t.Errorf("expected the deposit row to survive, got %+v", rows)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := domain.RawResult{
		Deposits:   []domain.ActionRecord{record("d1", "5000000000000000000", 18, "0xa")},
		Liquidates: []domain.ActionRecord{record("l1", "100", 2, "")},
	}
	first, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	second, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalize is not idempotent:\n%+v\n%+v", first, second)
	}
}
