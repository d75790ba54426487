// Package domain defines the core business entities for the Lavpop BI
// service. These models are independent of external services and represent
// the canonical data structures used throughout the dashboard backend.
package domain

import "time"

// ============================================================
// Transactions (POS export rows)
// ============================================================

// TransactionType classifies a POS row.
const (
	TypePurchase = "TYPE_1" // normal purchase: machines + gross > 0
	TypeWallet   = "TYPE_2" // paid from wallet balance
	TypeRecarga  = "TYPE_3" // wallet top-up
	TypeUnknown  = "UNKNOWN"
)

// MachineUsage holds cycle counts extracted from the free-text machine field.
// Recarga mentions are tracked separately and never counted as wash or dry.
type MachineUsage struct {
	Wash    int `json:"wash"`
	Dry     int `json:"dry"`
	Recarga int `json:"recarga"`
}

// Total returns the number of billable machine cycles (wash + dry).
func (u MachineUsage) Total() int { return u.Wash + u.Dry }

// Transaction is a single POS sale row after normalization.
// Date carries the parsed Data_Hora; DateValid is false when the source
// string could not be parsed, in which case the row is excluded from every
// time-bucketed view and from lifetime metrics.
type Transaction struct {
	ID          string        `json:"id,omitempty"`
	Document    string        `json:"doc_cliente"` // normalized, 11 digits
	Date        time.Time     `json:"data_hora"`
	DateValid   bool          `json:"-"`
	GrossAmount float64       `json:"valor_venda"`
	PaidAmount  float64       `json:"valor_pago"`
	NetAmount   float64       `json:"net_value,omitempty"`
	Cashback    float64       `json:"cashback_amount,omitempty"`
	Machines    string        `json:"maquinas,omitempty"` // raw free text
	Usage       MachineUsage  `json:"usage"`
	Type        string        `json:"transaction_type,omitempty"`
	Store       string        `json:"loja,omitempty"`
	Payment     string        `json:"meio_de_pagamento,omitempty"`
	ImportHash  string        `json:"import_hash,omitempty"`
	Weather     *DailyWeather `json:"weather,omitempty"`
}

// DailyWeather is the daily weather record joined against transactions
// for the weather-impact analysis.
type DailyWeather struct {
	Date            string  `json:"date"` // YYYY-MM-DD
	TempC           float64 `json:"temp_c"`
	HumidityPct     float64 `json:"humidity_pct"`
	PrecipitationMM float64 `json:"precipitation_mm"`
}
