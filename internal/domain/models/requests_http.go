package models

// Requests for the analysis HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=2,max=20"`
	Sector string `query:"sector" json:"sector"`
	Index  string `query:"index" json:"index" default:"NIFTY" validate:"oneof=NIFTY BANKNIFTY"`
}

type ScanRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=100,dive,min=2,max=20"`
	Sector  string   `json:"sector"`
	Index   string   `json:"index" default:"NIFTY" validate:"oneof=NIFTY BANKNIFTY"`
}

type BarsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=2,max=20"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=500"`
}

type DiagnosticsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=2,max=20"`
	Sector string `query:"sector" json:"sector"`
	Index  string `query:"index" json:"index" default:"NIFTY" validate:"oneof=NIFTY BANKNIFTY"`
}

type SignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	Days   int    `query:"days" json:"days" default:"7" validate:"gte=1,lte=365"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}
