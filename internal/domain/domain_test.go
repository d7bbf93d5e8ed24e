package domain

import (
	"testing"
	"time"
)

func TestActionKindLabel(t *testing.T) {
	cases := map[ActionKind]string{
		KindWithdraws:  "Withdraw",
		KindDeposits:   "Deposit",
		KindBorrows:    "Borrow",
		KindRepays:     "Repay",
		KindLiquidates: "Liquidate",
	}
	for kind, want := range cases {
		if got := kind.Label(); got != want {
			t.Errorf("%s: expected label %q, got %q", kind, want, got)
		}
	}
}

func TestActionKindsOrder(t *testing.T) {
	want := []ActionKind{KindWithdraws, KindDeposits, KindBorrows, KindRepays, KindLiquidates}
	if len(ActionKinds) != len(want) {
		t.Fatalf("expected %d kinds, got %d", len(want), len(ActionKinds))
	}
	for i := range want {
		if ActionKinds[i] != want[i] {
			t.Errorf("kind %d: expected %s, got %s", i, want[i], ActionKinds[i])
		}
	}
	if KindLiquidates.HasAccount() {
		t.Errorf("liquidates should not carry an account")
	}
}

func TestRawResultEmpty(t *testing.T) {
	if !(RawResult{}).Empty() {
		t.Errorf("zero result should be empty")
	}
	raw := RawResult{Repays: []ActionRecord{{ID: "r1"}}}
	if raw.Empty() {
		t.Errorf("result with a repay should not be empty")
	}
	if len(raw.Records(KindRepays)) != 1 {
		t.Errorf("expected one repay record")
	}
}

func TestHumanizeAge(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ts   time.Time
		want string
	}{
		{now.Add(-(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second)), "2 days 3 hrs 4 mins ago"},
		{now.Add(-(3*time.Hour + 42*time.Second)), "3 hrs 42 secs ago"},
		{now.Add(-7 * time.Second), "7 secs ago"},
		{now.Add(time.Minute), "0 secs ago"},
	}
	for _, tc := range cases {
		if got := HumanizeAge(tc.ts, now); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestResolutionSummary(t *testing.T) {
	user := "0xabc"
	res := Resolution{
		Hash:  "0x1",
		Found: true,
		Chain: ChainFantom,
		Rows: []ActionRow{
			{Kind: KindLiquidates},
			{Kind: KindRepays, User: &user},
		},
		Probes: []Probe{
			{Chain: ChainEthereum, Outcome: ProbeFailed},
			{Chain: ChainFantom, Outcome: ProbeMatched},
		},
	}
	if got, ok := res.User(); !ok || got != user {
		t.Errorf("expected user %s, got %q (%v)", user, got, ok)
	}
	failed := res.FailedChains()
	if len(failed) != 1 || failed[0] != ChainEthereum {
		t.Errorf("unexpected failed chains %v", failed)
	}
	record := res.Record()
	if record.RowCount != 2 || record.ProbeCount != 2 || record.FailedChains != 1 || record.Chain != ChainFantom {
		t.Errorf("unexpected record %+v", record)
	}
}
