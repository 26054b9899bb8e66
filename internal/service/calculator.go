package service

import "errors"

var ErrInvalidCalculatorInput = errors.New("invalid calculator input")

// CalculatorInput is the position sizing request.
type CalculatorInput struct {
	Balance      float64
	RiskPercent  float64
	StopLossPips float64
}

// CalculatorResult is the computed position sizing.
type CalculatorResult struct {
	LotSize         float64
	RiskAmount      float64
	PotentialProfit float64
}

// For Gold (XAU/USD), 1 pip = $0.1 for 0.01 lot, so 1 lot pip value is $10.
const pipValuePerLot = 10.0

// CalculateLotSize computes the lot size that risks the requested share of
// the balance over the given stop loss, and the profit at 1:2 risk/reward.
func CalculateLotSize(in CalculatorInput) (*CalculatorResult, error) {
	if in.Balance <= 0 || in.RiskPercent <= 0 || in.StopLossPips <= 0 {
		return nil, ErrInvalidCalculatorInput
	}
	riskAmount := in.Balance * (in.RiskPercent / 100)
	lossPerLot := in.StopLossPips * pipValuePerLot
	return &CalculatorResult{
		LotSize:         riskAmount / lossPerLot,
		RiskAmount:      riskAmount,
		PotentialProfit: riskAmount * 2,
	}, nil
}
