package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"aavetx/internal/chains"
	"aavetx/internal/domain"

	"github.com/shopspring/decimal"
)

func TestPrintResolution(t *testing.T) {
	ts := time.Date(2022, 4, 15, 5, 20, 0, 0, time.UTC)
	res := domain.Resolution{
		Hash:  "0xabc",
		Found: true,
		Chain: domain.ChainArbitrum,
		Rows: []domain.ActionRow{{
			Time:        "04/15/2022, 05:20:00",
			Timestamp:   ts,
			Type:        "Liquidate",
			AssetSymbol: "WETH",
			AssetAmount: decimal.NewFromInt(3),
			AmountUSD:   decimal.RequireFromString("9000.5"),
			AssetID:     "0x82af",
		}},
		Probes: []domain.Probe{{Chain: domain.ChainEthereum, Outcome: domain.ProbeFailed}},
	}
	var out bytes.Buffer
	printResolution(&out, chains.Default(), res, ts.Add(90*time.Second))
	text := out.String()
	for _, want := range []string{
		"result may be incomplete",
		"https://arbiscan.io/tx/0xabc",
		"1 mins ago",
		"9000.50",
		"Liquidate",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "User:") {
		t.Errorf("liquidation should print no user")
	}
}

func TestPrintNotFound(t *testing.T) {
	var out bytes.Buffer
	printResolution(&out, chains.Default(), domain.Resolution{Hash: "0xmissing"}, time.Now())
	if !strings.Contains(out.String(), "0xmissing not found") {
		t.Errorf("unexpected output %q", out.String())
	}
}
