package extensions

import (
	"testing"
	"time"
)

func TestFilterSingle(t *testing.T) {
	keys := []string{"1. Information", "2. Symbol", "3. Last Refreshed"}

	key, err := FilterSingle(keys, func(s string) bool { return s == "2. Symbol" })
	if err != nil {
		t.Fatalf("expected single match, got %v", err)
	}
	AssertAreEqual(t, "symbol key", "2. Symbol", key)

	if _, err := FilterSingle(keys, func(s string) bool { return len(s) > 0 }); err == nil {
		t.Fatalf("expected an error when more than one element matches")
	}
}

func TestUniqueKeepsFirstOccurrence(t *testing.T) {
	res := Unique([]string{"AAPL", "TSLA", "AAPL", "MSFT", "TSLA"})
	AssertAreEqual(t, "length", 3, len(res))
	AssertAreEqual(t, "first", "AAPL", res[0])
	AssertAreEqual(t, "second", "TSLA", res[1])
	AssertAreEqual(t, "third", "MSFT", res[2])
}

func TestToDateDropsClockAndZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}

	a := ToDate(time.Date(2024, time.March, 4, 16, 0, 0, 0, ny))
	b := ToDate(time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC))
	if a != b {
		t.Fatalf("expected %s and %s to be the same join key", a, b)
	}
}

func TestSortedDates(t *testing.T) {
	values := map[time.Time]float64{
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC): 3,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC): 1,
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC): 2,
	}

	dates := SortedDates(values)
	for i, d := range dates {
		AssertAreEqual(t, FmtShort(d), float64(i+1), values[d])
	}
}
