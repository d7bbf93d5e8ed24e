package application

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"aavetx/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	DisplayTimeLayout = "01/02/2006, 15:04:05"
	maxDecimals       = 255
)

// Normalize flattens a raw result into rows in kind order. A record that
// cannot be converted is skipped; its error is joined into the returned
// error while the remaining rows are still returned.
func Normalize(raw domain.RawResult) ([]domain.ActionRow, error) {
	var (
		rows []domain.ActionRow
		errs []error
	)
	for _, kind := range domain.ActionKinds {
		for _, record := range raw.Records(kind) {
			row, err := normalizeRecord(kind, record)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", kind, record.ID, err))
				continue
			}
			rows = append(rows, row)
		}
	}
	return rows, errors.Join(errs...)
}

func normalizeRecord(kind domain.ActionKind, record domain.ActionRecord) (domain.ActionRow, error) {
	seconds, err := strconv.ParseInt(strings.TrimSpace(record.Timestamp), 10, 64)
	if err != nil {
		return domain.ActionRow{}, fmt.Errorf("invalid timestamp %q", record.Timestamp)
	}
	ts := time.Unix(seconds, 0).UTC()

	amount, err := ScaleAmount(record.Amount, record.Asset.Decimals)
	if err != nil {
		return domain.ActionRow{}, err
	}

	row := domain.ActionRow{
		Time:        ts.Format(DisplayTimeLayout),
		Timestamp:   ts,
		Kind:        kind,
		Type:        kind.Label(),
		AssetSymbol: record.Asset.Symbol,
		TxHash:      record.Hash,
		AssetID:     record.Asset.ID,
		AssetAmount: amount,
		AmountUSD:   record.AmountUSD,
	}
	if kind.HasAccount() && record.Account != nil && record.Account.ID != "" {
		user := record.Account.ID
		row.User = &user
	}
	return row, nil
}

// ScaleAmount divides an integer on-chain amount by 10^decimals and drops
// the fractional part, truncating toward zero.
func ScaleAmount(raw string, decimals int) (decimal.Decimal, error) {
	if decimals < 0 || decimals > maxDecimals {
		return decimal.Zero, fmt.Errorf("invalid decimals %d", decimals)
	}
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if !value.IsInteger() {
		return decimal.Zero, fmt.Errorf("amount %q is not an integer", raw)
	}
	return value.Shift(int32(-decimals)).Truncate(0), nil
}
