package journal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PositionSizeRequest holds the inputs of the position size calculator.
type PositionSizeRequest struct {
	Balance      Amount `json:"balance" validate:"gt=0"`
	RiskPercent  Amount `json:"riskPercent" validate:"gt=0"`
	StopLossPips Amount `json:"stopLossPips" validate:"gt=0"`
	PipValue     Amount `json:"pipValue" validate:"gt=0"`
}

// PositionSizeResult reports the money at risk and the lot size, both
// rounded to two decimals.
type PositionSizeResult struct {
	RiskAmount Amount `json:"riskAmount"`
	LotSize    Amount `json:"lotSize"`
}

// PositionSize computes how many lots risk RiskPercent of Balance over the
// stop loss distance.
func PositionSize(req PositionSizeRequest) (PositionSizeResult, error) {
	if err := validate.Struct(req); err != nil {
		return PositionSizeResult{}, validationError(err)
	}
	risk := req.Balance.Mul(req.RiskPercent.Decimal).Div(decimal.NewFromInt(100))
	stopLossAmount := req.StopLossPips.Mul(req.PipValue.Decimal)
	lots := risk.Div(stopLossAmount)
	return PositionSizeResult{
		RiskAmount: Amount{risk.Round(2)},
		LotSize:    Amount{lots.Round(2)},
	}, nil
}

// RiskRewardRequest holds the inputs of the risk/reward calculator.
type RiskRewardRequest struct {
	Type       TradeType `json:"type" validate:"required,oneof=buy sell"`
	Entry      Amount    `json:"entry" validate:"gt=0"`
	StopLoss   Amount    `json:"stopLoss" validate:"gt=0"`
	TakeProfit Amount    `json:"takeProfit" validate:"gt=0"`
}

// RiskRewardResult reports price distances and the reward multiple.
type RiskRewardResult struct {
	Risk   Amount `json:"risk"`
	Reward Amount `json:"reward"`
	Ratio  Amount `json:"ratio"`
}

// RiskReward computes the reward multiple of a planned trade. Stops and
// targets on the wrong side of the entry are rejected.
func RiskReward(req RiskRewardRequest) (RiskRewardResult, error) {
	req.Type = TradeType(strings.ToLower(strings.TrimSpace(string(req.Type))))
	if err := validate.Struct(req); err != nil {
		return RiskRewardResult{}, validationError(err)
	}
	var risk, reward decimal.Decimal
	if req.Type == TradeBuy {
		risk = req.Entry.Sub(req.StopLoss.Decimal)
		reward = req.TakeProfit.Sub(req.Entry.Decimal)
	} else {
		risk = req.StopLoss.Sub(req.Entry.Decimal)
		reward = req.Entry.Sub(req.TakeProfit.Decimal)
	}
	if !risk.IsPositive() || !reward.IsPositive() {
		return RiskRewardResult{}, NewError(ErrCodeValidation, "invalid prices for the selected trade type")
	}
	return RiskRewardResult{
		Risk:   Amount{risk},
		Reward: Amount{reward},
		Ratio:  Amount{reward.Div(risk).Round(2)},
	}, nil
}
