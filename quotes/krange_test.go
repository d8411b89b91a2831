package quotes

import (
	"testing"
	"time"

	"github.com/maxwell-lv/mootdx/models"
)

func dailyBar(datetime string, close float64) models.Record {
	return models.Record{
		{Name: "open", Value: close - 1},
		{Name: "close", Value: close},
		{Name: "high", Value: close + 1},
		{Name: "low", Value: close - 2},
		{Name: "vol", Value: 1000.0},
		{Name: "amount", Value: 100000.0},
		{Name: "year", Value: 2023},
		{Name: "month", Value: 5},
		{Name: "day", Value: 8},
		{Name: "hour", Value: 15},
		{Name: "minute", Value: 0},
		{Name: "datetime", Value: datetime},
	}
}

func TestKFiltersAndSortsRange(t *testing.T) {
	client := &fakeStdClient{bars: []models.Record{
		dailyBar("2023-05-08 15:00", 11),
		dailyBar("2023-04-28 15:00", 9),
		dailyBar("2023-05-02 15:00", 10),
		dailyBar("2023-05-09 15:00", 12),
	}}
	q := newStd(t, client)
	q.now = func() time.Time { return time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC) }

	got, err := q.K("600000", "2023-05-01", "2023-05-09")
	if err != nil {
		t.Fatalf("K: %v", err)
	}

	dates := got.Column("date")
	want := []string{"2023-05-02", "2023-05-08"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("dates = %v, want %v", dates, want)
		}
	}

	if codes := got.Column("code"); codes[0] != "600000" {
		t.Errorf("code column = %v, want 600000", codes)
	}
	for _, col := range got.Columns() {
		switch col {
		case "datetime", "year", "month", "day", "hour", "minute":
			t.Errorf("column %q should have been dropped", col)
		}
	}
	if got.Symbol != "600000" {
		t.Errorf("table symbol = %q, want 600000", got.Symbol)
	}
}

func TestKCompactDates(t *testing.T) {
	client := &fakeStdClient{bars: []models.Record{
		dailyBar("2023-05-02 15:00", 10),
	}}
	q := newStd(t, client)
	q.now = func() time.Time { return time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC) }

	got, err := q.K("600000", "20230501", "20230509")
	if err != nil {
		t.Fatalf("K: %v", err)
	}
	if got.Len() != 1 {
		t.Errorf("rows = %d, want 1", got.Len())
	}
}

func TestKEmptyRangeSkipsRemote(t *testing.T) {
	client := &fakeStdClient{}
	q := newStd(t, client)
	q.now = func() time.Time { return time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC) }

	got, err := q.K("600000", "2023-05-09", "2023-05-09")
	if err != nil {
		t.Fatalf("K: %v", err)
	}
	if !got.Empty() {
		t.Errorf("expected empty table, got %d rows", got.Len())
	}
	if len(client.calls) != 0 {
		t.Errorf("remote calls made: %v", client.calls)
	}
}

func TestKRejectsBadDate(t *testing.T) {
	client := &fakeStdClient{}
	q := newStd(t, client)

	if _, err := q.K("600000", "first of may", "2023-05-09"); !models.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestKPagesLongRanges(t *testing.T) {
	client := &fakeStdClient{}
	q := newStd(t, client)
	q.now = func() time.Time { return time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC) }

	// Ten years back resolves to several estimated pages of 800 bars.
	if _, err := q.K("600000", "2013-05-10", "2023-05-09"); err != nil {
		t.Fatalf("K: %v", err)
	}
	if len(client.calls) < 2 {
		t.Fatalf("expected multiple pages, got calls %v", client.calls)
	}
	if client.calls[0] != "bars/9/1/600000/1/800" {
		t.Errorf("first page call = %q", client.calls[0])
	}
	if client.calls[1] != "bars/9/1/600000/801/800" {
		t.Errorf("second page call = %q", client.calls[1])
	}
}

func TestOhlcIsK(t *testing.T) {
	client := &fakeStdClient{bars: []models.Record{
		dailyBar("2023-05-02 15:00", 10),
	}}
	q := newStd(t, client)
	q.now = func() time.Time { return time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC) }

	got, err := q.Ohlc("600000", "2023-05-01", "2023-05-09")
	if err != nil {
		t.Fatalf("Ohlc: %v", err)
	}
	if got.Len() != 1 {
		t.Errorf("rows = %d, want 1", got.Len())
	}
}
