// Package models defines the core data structures used throughout futuresagent.
package models

import "time"

// Exchange identifies a Chinese futures exchange.
type Exchange string

const (
	SHFE  Exchange = "SHFE"  // Shanghai Futures Exchange
	INE   Exchange = "INE"   // Shanghai International Energy Exchange
	DCE   Exchange = "DCE"   // Dalian Commodity Exchange
	CZCE  Exchange = "CZCE"  // Zhengzhou Commodity Exchange
	GFEX  Exchange = "GFEX"  // Guangzhou Futures Exchange
	CFFEX Exchange = "CFFEX" // China Financial Futures Exchange
)

// Exchanges returns all exchanges in display order.
func Exchanges() []Exchange {
	return []Exchange{SHFE, INE, DCE, CZCE, GFEX, CFFEX}
}

// Symbol is a futures variety, e.g. rb (螺纹钢) on SHFE.
type Symbol struct {
	Code     string   `json:"code" yaml:"code"`         // lower-case variety code, e.g. "rb"
	Name     string   `json:"name" yaml:"name"`         // Chinese name, e.g. "螺纹钢"
	Exchange Exchange `json:"exchange" yaml:"exchange"` // listing exchange
}

// Financial reports whether the symbol is a stock-index or bond future.
func (s Symbol) Financial() bool {
	return s.Exchange == CFFEX
}

// OHLCV is one daily session of the continuous main contract.
type OHLCV struct {
	Date         time.Time `json:"date"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       float64   `json:"volume"`
	OpenInterest float64   `json:"open_interest,omitempty"` // 持仓量
	Settle       float64   `json:"settle,omitempty"`        // 结算价
}

// Quote is a realtime snapshot of the main contract.
type Quote struct {
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Last         float64   `json:"last"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Bid          float64   `json:"bid,omitempty"`
	Ask          float64   `json:"ask,omitempty"`
	BidVolume    float64   `json:"bid_volume,omitempty"`
	AskVolume    float64   `json:"ask_volume,omitempty"`
	PreSettle    float64   `json:"pre_settle"`
	Change       float64   `json:"change"`
	ChangePct    float64   `json:"change_pct"`
	Volume       float64   `json:"volume"`
	OpenInterest float64   `json:"open_interest"`
	Time         time.Time `json:"time"`
}
