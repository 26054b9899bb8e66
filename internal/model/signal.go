package model

import "time"

// SignalDirection is the trade recommendation produced by the AI analyst.
type SignalDirection string

const (
	SignalBuy  SignalDirection = "BUY"
	SignalSell SignalDirection = "SELL"
	SignalWait SignalDirection = "WAIT"
)

// Timeframe is the suggested trading horizon for a signal.
type Timeframe string

const (
	TimeframeScalp    Timeframe = "Scalp"
	TimeframeIntraday Timeframe = "Intraday"
	TimeframeSwing    Timeframe = "Swing"
)

// IndicatorAnalysis holds the per-indicator commentary attached to a signal.
type IndicatorAnalysis struct {
	ICTConcept        string `json:"ictConcept"`
	RSI               string `json:"rsi"`
	EMA               string `json:"ema"`
	MACD              string `json:"macd"`
	SupportResistance string `json:"supportResistance"`
}

// Signal is the structured trading recommendation returned by the AI
// collaborator. The schema is a fixed upstream contract; beyond trusting the
// types this service does not validate it.
type Signal struct {
	Signal       SignalDirection   `json:"signal"`
	Confidence   float64           `json:"confidence"`
	CurrentPrice float64           `json:"currentPrice"`
	Timeframe    Timeframe         `json:"timeframe"`
	Summary      string            `json:"summary"`
	Analysis     IndicatorAnalysis `json:"analysis"`
	Entry        float64           `json:"entry"`
	StopLoss     float64           `json:"stopLoss"`
	TakeProfit1  float64           `json:"takeProfit1"`
	TakeProfit2  float64           `json:"takeProfit2"`
}

// AnalysisRecord is a persisted Signal plus attribution. Records are created
// once per successful analysis and only ever mutated through admin edits.
type AnalysisRecord struct {
	Signal
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"timestamp"`
}

// AnalysisUpdate carries a partial admin edit of an analysis record. Nil
// fields are left unchanged.
type AnalysisUpdate struct {
	Signal       *SignalDirection   `json:"signal,omitempty"`
	Confidence   *float64           `json:"confidence,omitempty"`
	CurrentPrice *float64           `json:"currentPrice,omitempty"`
	Timeframe    *Timeframe         `json:"timeframe,omitempty"`
	Summary      *string            `json:"summary,omitempty"`
	Analysis     *IndicatorAnalysis `json:"analysis,omitempty"`
	Entry        *float64           `json:"entry,omitempty"`
	StopLoss     *float64           `json:"stopLoss,omitempty"`
	TakeProfit1  *float64           `json:"takeProfit1,omitempty"`
	TakeProfit2  *float64           `json:"takeProfit2,omitempty"`
}

// MarketEvent is an upcoming economic event reported by the market summary.
type MarketEvent struct {
	Name   string `json:"name"`
	Impact string `json:"impact"`
	Date   string `json:"date"`
}

// MarketSummaryData is the AI-generated daily market context for XAU/USD.
type MarketSummaryData struct {
	News        string        `json:"news"`
	DXY         string        `json:"dxy"`
	Events      []MarketEvent `json:"events"`
	LastUpdated string        `json:"lastUpdated"`
}
