package quotes

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/maxwell-lv/mootdx/models"
)

func newExt(t *testing.T, client *fakeExtClient) *ExtQuotes {
	t.Helper()
	q, err := NewExt(client, Options{})
	if err != nil {
		t.Fatalf("NewExt: %v", err)
	}
	quiet(q.retry)
	return q
}

func TestValidate(t *testing.T) {
	q := newExt(t, &fakeExtClient{})

	cases := []struct {
		market, symbol string
		wantMarket     int
		wantSymbol     string
		wantErr        bool
	}{
		{market: "30", symbol: "IF2309", wantMarket: 30, wantSymbol: "IF2309"},
		{market: "", symbol: "1#600000", wantMarket: 1, wantSymbol: "600000"},
		{market: "4", symbol: "1#600000", wantMarket: 4, wantSymbol: "1#600000"},
		{market: "", symbol: "600000", wantErr: true},
		{market: "abc", symbol: "600000", wantErr: true},
	}

	for _, tc := range cases {
		market, symbol, err := q.Validate(tc.market, tc.symbol)
		if tc.wantErr {
			if !models.IsValidation(err) {
				t.Errorf("Validate(%q, %q): expected validation error, got %v", tc.market, tc.symbol, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Validate(%q, %q): %v", tc.market, tc.symbol, err)
			continue
		}
		if market != tc.wantMarket || symbol != tc.wantSymbol {
			t.Errorf("Validate(%q, %q) = %d/%q, want %d/%q",
				tc.market, tc.symbol, market, symbol, tc.wantMarket, tc.wantSymbol)
		}
	}
}

func TestNewExtSwallowsConnectError(t *testing.T) {
	client := &fakeExtClient{}
	client.connectErr = errors.New("refused")

	q, err := NewExt(client, Options{})
	if err != nil {
		t.Fatalf("construction must not propagate connect errors, got %v", err)
	}
	if q.Alive() {
		t.Error("facade alive after failed connect")
	}
}

func TestExtRetriesEmptyThenSucceeds(t *testing.T) {
	client := &fakeExtClient{barsScript: [][]models.Record{
		nil,
		rows(5),
	}}
	q := newExt(t, client)

	got, err := q.Bars("47", "IF2309", FreqDaily, 0, 800)
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if got.Len() != 5 {
		t.Errorf("rows = %d, want 5", got.Len())
	}
	if client.barsCalls != 2 {
		t.Errorf("remote attempts = %d, want 2", client.barsCalls)
	}
}

func TestExtExhaustedRetriesYieldEmptyTable(t *testing.T) {
	client := &fakeExtClient{barsScript: [][]models.Record{nil}}
	q := newExt(t, client)

	got, err := q.Bars("47", "IF2309", FreqDaily, 0, 800)
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if got == nil || !got.Empty() {
		t.Errorf("expected empty table, got %v", got)
	}
	if client.barsCalls != 3 {
		t.Errorf("remote attempts = %d, want 3", client.barsCalls)
	}
}

func TestExtReconnectsBetweenEmptyAttempts(t *testing.T) {
	client := &fakeExtClient{barsScript: [][]models.Record{
		nil,
		rows(1),
	}}
	q := newExt(t, client)

	// Kill the connection after construction; the liveness precondition
	// must rebuild it before the attempt runs.
	client.connected = false

	if _, err := q.Bars("47", "IF2309", FreqDaily, 0, 800); err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if client.connects < 2 {
		t.Errorf("connects = %d, want a reconnect", client.connects)
	}
}

func TestInstrumentsPagesByHundred(t *testing.T) {
	client := &fakeExtClient{count: 250}
	q := newExt(t, client)

	got, err := q.Instruments()
	if err != nil {
		t.Fatalf("Instruments: %v", err)
	}
	if got.Len() != 250 {
		t.Errorf("rows = %d, want 250", got.Len())
	}
	want := []string{"count", "info/0/100", "info/100/100", "info/200/100"}
	if !reflect.DeepEqual(client.calls, want) {
		t.Errorf("calls = %v, want %v", client.calls, want)
	}
}

func TestExtQuoteValidationBurnsRetries(t *testing.T) {
	client := &fakeExtClient{}
	q := newExt(t, client)

	waits := 0
	q.retry.sleep = func(time.Duration) { waits++ }

	if _, err := q.Quote("", "600000"); !models.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	// The bad pair counts against the retry budget like any other failure,
	// but never reaches the wire.
	if waits != 2 {
		t.Errorf("waits = %d, want 2", waits)
	}
	if len(client.calls) != 0 {
		t.Errorf("remote calls made: %v", client.calls)
	}
}

func TestExtTransactionsClampOffset(t *testing.T) {
	client := &fakeExtClient{transaction: rows(1)}
	q := newExt(t, client)

	if _, err := q.Transactions("47", "IF2309", 20230508, 0, 5000); err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	want := "histtrans/47/IF2309/20230508/0/800"
	if client.calls[len(client.calls)-1] != want {
		t.Errorf("call = %q, want %q", client.calls[len(client.calls)-1], want)
	}
}

func TestMarketsTable(t *testing.T) {
	client := &fakeExtClient{markets: rows(3, "name", "大连商品")}
	q := newExt(t, client)

	got, err := q.Markets()
	if err != nil {
		t.Fatalf("Markets: %v", err)
	}
	if got.Len() != 3 {
		t.Errorf("rows = %d, want 3", got.Len())
	}
}
