package sector

import "testing"

func TestDetectSector(t *testing.T) {
	l := NewLookup()

	cases := []struct {
		symbol string
		want   string
	}{
		{"RELIANCE", "ENERGY"},
		{"TCS", "IT"},
		{"HDFCBANK", "BANKING"},
		{"TATAMOTORS", "AUTO"},
		{"reliance", "ENERGY"},    // case insensitive
		{"RELIANCE.NS", "ENERGY"}, // NSE suffix stripped
		{"TCS.BO", "IT"},          // BSE suffix stripped
		{"SOMENEWIPO", "UNKNOWN"},
		{"", "UNKNOWN"},
	}
	for _, tc := range cases {
		if got := l.DetectSector(tc.symbol); got != tc.want {
			t.Fatalf("DetectSector(%q) = %q, want %q", tc.symbol, got, tc.want)
		}
	}
}

func TestDetectSectorFuzzy(t *testing.T) {
	l := NewLookup()

	// Abbreviated variant contained in a table key.
	if got := l.DetectSector("HEROMOTO"); got != "AUTO" {
		t.Fatalf("HEROMOTO = %q, want AUTO", got)
	}
	// Variant containing a table key.
	if got := l.DetectSector("TATASTEEL-EQ"); got != "METALS" {
		t.Fatalf("TATASTEEL-EQ = %q, want METALS", got)
	}
	// Fuzzy hits are deterministic across runs.
	first := l.DetectSector("BAJAJ")
	for i := 0; i < 10; i++ {
		if got := l.DetectSector("BAJAJ"); got != first {
			t.Fatalf("fuzzy match unstable: %q then %q", first, got)
		}
	}
}

func TestSectorsAndSymbolsIn(t *testing.T) {
	l := NewLookup()

	sectors := l.Sectors()
	if len(sectors) == 0 {
		t.Fatal("no sectors in table")
	}
	for i := 1; i < len(sectors); i++ {
		if sectors[i-1] >= sectors[i] {
			t.Fatalf("sectors not sorted: %v", sectors)
		}
	}

	banks := l.SymbolsIn("BANKING")
	if len(banks) == 0 {
		t.Fatal("no banking symbols")
	}
	for _, s := range banks {
		if stockSectors[s] != "BANKING" {
			t.Fatalf("%s is not a bank", s)
		}
	}
}
