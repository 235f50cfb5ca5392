package util

import (
	"testing"
	"time"
)

func TestPeriodKeys(t *testing.T) {
	got := PeriodKeys(8)
	want := []string{"august", "summer", "q3"}
	if len(got) != len(want) {
		t.Fatalf("unexpected keys %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key %d: got %s want %s", i, got[i], want[i])
		}
	}
	if PeriodKeys(13) != nil {
		t.Fatalf("expected nil for invalid month")
	}
}

func TestSeasonWrapsDecember(t *testing.T) {
	if Season(12) != "winter" || Season(1) != "winter" {
		t.Fatalf("december and january must be winter")
	}
	if Quarter(12) != "q4" || Quarter(1) != "q1" {
		t.Fatalf("unexpected quarters")
	}
}

func TestParseMonth(t *testing.T) {
	cases := map[string]int{"3": 3, "03": 3, "March": 3, "dec": 12}
	for in, want := range cases {
		got, ok := ParseMonth(in)
		if !ok || got != want {
			t.Fatalf("ParseMonth(%q) = %d, %v", in, got, ok)
		}
	}
	if _, ok := ParseMonth("13"); ok {
		t.Fatalf("13 is not a month")
	}
	if _, ok := ParseMonth("ma"); ok {
		t.Fatalf("ambiguous prefix accepted")
	}
}

func TestMonthOrCurrent(t *testing.T) {
	now := time.Date(2024, time.October, 10, 0, 0, 0, 0, time.UTC)
	if MonthOrCurrent(0, now) != 10 {
		t.Fatalf("expected current month")
	}
	if MonthOrCurrent(4, now) != 4 {
		t.Fatalf("expected explicit month")
	}
}

func TestSplitCodes(t *testing.T) {
	got := SplitCodes(" fra, DEU,,fra ,usa")
	if len(got) != 3 || got[0] != "FRA" || got[1] != "DEU" || got[2] != "USA" {
		t.Fatalf("unexpected codes %v", got)
	}
}

func TestNormalizeCodes(t *testing.T) {
	got := NormalizeCodes([]string{"USA", "usa", " Usa ", "", "jpn"})
	if len(got) != 2 || got[0] != "USA" || got[1] != "JPN" {
		t.Fatalf("unexpected codes %v", got)
	}
	if NormalizeCodes(nil) != nil {
		t.Fatal("expected nil for no codes")
	}
}
