package sector

import (
	"sort"
	"strings"

	domsvc "SignalDesk/internal/domain/service"
)

// Unknown is returned for symbols outside the mapping.
const Unknown = "UNKNOWN"

// stockSectors maps popular NSE symbols to sector labels. Keys are plain
// symbols without exchange suffixes.
var stockSectors = map[string]string{
	// Banking
	"HDFCBANK": "BANKING", "ICICIBANK": "BANKING", "SBIN": "BANKING",
	"AXISBANK": "BANKING", "KOTAKBANK": "BANKING",
	"BANDHANBNK": "BANKING", "FEDERALBNK": "BANKING", "IDFCFIRSTB": "BANKING",

	// IT
	"TCS": "IT", "INFY": "IT", "WIPRO": "IT", "HCLTECH": "IT",
	"TECHM": "IT", "LTIM": "IT", "COFORGE": "IT", "MPHASIS": "IT",

	// Auto
	"TATAMOTORS": "AUTO", "M&M": "AUTO", "MARUTI": "AUTO", "BAJAJ-AUTO": "AUTO",
	"EICHERMOT": "AUTO", "HEROMOTOCORP": "AUTO", "ASHOKLEY": "AUTO",

	// Pharma
	"SUNPHARMA": "PHARMA", "DRREDDY": "PHARMA", "CIPLA": "PHARMA",
	"DIVISLAB": "PHARMA", "BIOCON": "PHARMA", "AUROPHARMA": "PHARMA",

	// FMCG
	"HINDUNILVR": "FMCG", "ITC": "FMCG", "NESTLEIND": "FMCG",
	"BRITANNIA": "FMCG", "DABUR": "FMCG", "MARICO": "FMCG",

	// Energy / Oil & Gas
	"RELIANCE": "ENERGY", "ONGC": "ENERGY", "BPCL": "ENERGY",
	"IOC": "ENERGY", "GAIL": "ENERGY", "COALINDIA": "ENERGY",

	// Metals
	"TATASTEEL": "METALS", "HINDALCO": "METALS", "JSWSTEEL": "METALS",
	"SAIL": "METALS", "VEDL": "METALS", "NATIONALUM": "METALS",

	// Infra / Construction
	"LT": "INFRA", "ADANIPORTS": "INFRA", "ADANIENT": "INFRA",

	// Finance (NBFCs)
	"BAJFINANCE": "FINANCE", "BAJAJFINSV": "FINANCE", "CHOLAFIN": "FINANCE",
	"SBILIFE": "FINANCE", "HDFCLIFE": "FINANCE", "ICICIPRULI": "FINANCE",

	// Realty
	"DLF": "REALTY", "GODREJPROP": "REALTY", "OBEROIRLTY": "REALTY",

	// Cement
	"ULTRACEMCO": "CEMENT", "GRASIM": "CEMENT", "SHREECEM": "CEMENT",

	// Telecom
	"BHARTIARTL": "TELECOM", "INDUSINDBK": "TELECOM",

	// Paints
	"ASIANPAINT": "PAINTS", "BERGER": "PAINTS",
}

// Lookup resolves symbols to sector labels with a fixed table plus a
// containment fallback for suffixed or abbreviated variants.
type Lookup struct {
	sorted []string // table keys in lexical order, for deterministic fuzzy hits
}

func NewLookup() *Lookup {
	keys := make([]string, 0, len(stockSectors))
	for k := range stockSectors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Lookup{sorted: keys}
}

// DetectSector maps a symbol to its sector. Exchange suffixes (.NS, .BO)
// are stripped; an exact table hit wins, then the first containment match
// in lexical key order, then Unknown.
func (l *Lookup) DetectSector(symbol string) string {
	clean := strings.ToUpper(symbol)
	clean = strings.ReplaceAll(clean, ".NS", "")
	clean = strings.ReplaceAll(clean, ".BO", "")
	if clean == "" {
		return Unknown
	}

	if sector, ok := stockSectors[clean]; ok {
		return sector
	}
	for _, stock := range l.sorted {
		if strings.Contains(stock, clean) || strings.Contains(clean, stock) {
			return stockSectors[stock]
		}
	}
	return Unknown
}

// Sectors returns the distinct sector labels in the table, sorted.
func (l *Lookup) Sectors() []string {
	seen := make(map[string]struct{})
	for _, sector := range stockSectors {
		seen[sector] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for sector := range seen {
		out = append(out, sector)
	}
	sort.Strings(out)
	return out
}

// SymbolsIn returns the table symbols belonging to one sector, sorted.
func (l *Lookup) SymbolsIn(sector string) []string {
	var out []string
	for _, symbol := range l.sorted {
		if stockSectors[symbol] == sector {
			out = append(out, symbol)
		}
	}
	return out
}

var _ domsvc.SectorLookup = (*Lookup)(nil)
