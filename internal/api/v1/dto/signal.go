package dto

import (
	"time"

	"goldsignal/internal/model"
	"goldsignal/internal/service"
)

// ChartImageDTO is a base64-encoded chart screenshot.
type ChartImageDTO struct {
	MimeType string `json:"mimeType" validate:"required"`
	Data     string `json:"data" validate:"required"`
}

// AnalyzeRequestDTO is the signal-request payload.
type AnalyzeRequestDTO struct {
	Image    ChartImageDTO `json:"image" validate:"required"`
	Balance  string        `json:"balance" validate:"required"`
	LotSize  string        `json:"lotSize" validate:"required"`
	Risk     string        `json:"risk" validate:"required"`
	Leverage string        `json:"leverage" validate:"required"`
}

// GateDecisionDTO is the usage-gate answer. TimeLeftMs is set only for
// cooldown rejections.
type GateDecisionDTO struct {
	CanAnalyze bool   `json:"canAnalyze"`
	Reason     string `json:"reason,omitempty"`
	TimeLeftMs *int64 `json:"timeLeft,omitempty"`
	DailyCount int    `json:"dailyCount"`
	DailyLimit int    `json:"dailyLimit"`
}

// NewGateDecisionResponse maps a gate decision to its response DTO.
func NewGateDecisionResponse(d *service.GateDecision) GateDecisionDTO {
	out := GateDecisionDTO{
		CanAnalyze: d.Allowed,
		Reason:     string(d.Reason),
		DailyCount: d.DailyCount,
		DailyLimit: d.DailyLimit,
	}
	if d.Reason == service.GateReasonCooldown {
		ms := d.TimeRemaining.Milliseconds()
		out.TimeLeftMs = &ms
	}
	return out
}

// AnalysisResponseDTO is a persisted analysis record.
type AnalysisResponseDTO struct {
	ID           string                  `json:"id"`
	UserID       string                  `json:"userId"`
	CreatedAt    time.Time               `json:"timestamp"`
	Signal       model.SignalDirection   `json:"signal"`
	Confidence   float64                 `json:"confidence"`
	CurrentPrice float64                 `json:"currentPrice"`
	Timeframe    model.Timeframe         `json:"timeframe"`
	Summary      string                  `json:"summary"`
	Analysis     model.IndicatorAnalysis `json:"analysis"`
	Entry        float64                 `json:"entry"`
	StopLoss     float64                 `json:"stopLoss"`
	TakeProfit1  float64                 `json:"takeProfit1"`
	TakeProfit2  float64                 `json:"takeProfit2"`
}

// NewAnalysisResponse maps an analysis record to its response DTO.
func NewAnalysisResponse(rec model.AnalysisRecord) AnalysisResponseDTO {
	return AnalysisResponseDTO{
		ID:           rec.ID,
		UserID:       rec.UserID,
		CreatedAt:    rec.CreatedAt,
		Signal:       rec.Signal.Signal,
		Confidence:   rec.Confidence,
		CurrentPrice: rec.CurrentPrice,
		Timeframe:    rec.Timeframe,
		Summary:      rec.Summary,
		Analysis:     rec.Analysis,
		Entry:        rec.Entry,
		StopLoss:     rec.StopLoss,
		TakeProfit1:  rec.TakeProfit1,
		TakeProfit2:  rec.TakeProfit2,
	}
}

// AnalysisUpdateDTO is the admin edit payload for an analysis record. Absent
// fields are left unchanged.
type AnalysisUpdateDTO struct {
	Signal       *model.SignalDirection   `json:"signal,omitempty" validate:"omitempty,oneof=BUY SELL WAIT"`
	Confidence   *float64                 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=100"`
	CurrentPrice *float64                 `json:"currentPrice,omitempty"`
	Timeframe    *model.Timeframe         `json:"timeframe,omitempty" validate:"omitempty,oneof=Scalp Intraday Swing"`
	Summary      *string                  `json:"summary,omitempty"`
	Analysis     *model.IndicatorAnalysis `json:"analysis,omitempty"`
	Entry        *float64                 `json:"entry,omitempty"`
	StopLoss     *float64                 `json:"stopLoss,omitempty"`
	TakeProfit1  *float64                 `json:"takeProfit1,omitempty"`
	TakeProfit2  *float64                 `json:"takeProfit2,omitempty"`
}

// CalculatorRequestDTO is the position sizing request.
type CalculatorRequestDTO struct {
	Balance      float64 `json:"balance" validate:"required,gt=0"`
	RiskPercent  float64 `json:"riskPercent" validate:"required,gt=0"`
	StopLossPips float64 `json:"stopLossPips" validate:"required,gt=0"`
}

// CalculatorResponseDTO is the computed position sizing.
type CalculatorResponseDTO struct {
	LotSize         float64 `json:"lotSize"`
	RiskAmount      float64 `json:"riskAmount"`
	PotentialProfit float64 `json:"potentialProfit"`
}
