package trade

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/internal/exchange"
	"github.com/skalibog/marketsnap/pkg/logger"
	"github.com/skalibog/marketsnap/pkg/models"
	"go.uber.org/zap"
)

// Стороны ордера
const (
	SideBid = "bid"
	SideAsk = "ask"
)

// OrderPlacer отправляет подписанный ордер на биржу
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, params exchange.Params) (*exchange.OrderResponse, error)
}

// Executor исполняет рыночные ордера после проверок безопасности
type Executor struct {
	config config.TradingConfig
	placer OrderPlacer
	clock  models.Clock
}

// NewExecutor создает исполнитель ордеров
func NewExecutor(cfg config.TradingConfig, placer OrderPlacer) *Executor {
	return &Executor{config: cfg, placer: placer, clock: time.Now}
}

// Execute проверяет по порядку: аварийную остановку, режим DRY_RUN, лимит суммы покупки.
// bid: amount в KRW (ord_type=price), ask: amount в количестве монет (ord_type=market).
// Отказ проверки или отказ биржи возвращается как результат с success=false.
func (e *Executor) Execute(ctx context.Context, side, market, amount string) (*models.TradeResult, error) {
	if side != SideBid && side != SideAsk {
		return nil, fmt.Errorf("неизвестная сторона %q: допустимо bid или ask", side)
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("некорректная сумма %q: %w", amount, err)
	}
	if !value.IsPositive() {
		return nil, fmt.Errorf("сумма должна быть положительной: %s", amount)
	}

	result := &models.TradeResult{
		Side:      side,
		Market:    market,
		Amount:    amount,
		Timestamp: models.FormatKST(e.clock()),
	}

	if e.config.EmergencyStop {
		logger.Warn("Торговля заблокирована аварийной остановкой", zap.String("market", market))
		return reject(result, "EMERGENCY_STOP активен: торговля заблокирована"), nil
	}

	if e.config.DryRun {
		logger.Info("DRY_RUN: ордер не отправлен",
			zap.String("side", side), zap.String("market", market), zap.String("amount", amount))
		result.Success = true
		result.DryRun = true
		return result, nil
	}

	if side == SideBid && value.Truncate(0).GreaterThan(decimal.NewFromInt(e.config.MaxTradeAmount)) {
		return reject(result, fmt.Sprintf("превышен лимит суммы сделки: %s > %d", amount, e.config.MaxTradeAmount)), nil
	}

	params := exchange.Params{
		{Key: "market", Value: market},
		{Key: "side", Value: side},
	}
	if side == SideBid {
		params = append(params, exchange.Param{Key: "ord_type", Value: "price"}, exchange.Param{Key: "price", Value: amount})
	} else {
		params = append(params, exchange.Param{Key: "ord_type", Value: "market"}, exchange.Param{Key: "volume", Value: amount})
	}

	resp, err := e.placer.PlaceOrder(ctx, params)
	if err != nil {
		return nil, err
	}

	var body interface{}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		body = string(resp.Body)
	}
	result.Success = resp.OK
	result.Response = body
	if !resp.OK {
		msg := string(resp.Body)
		result.Error = &msg
		logger.Error("Биржа отклонила ордер",
			zap.String("market", market), zap.Int("status", resp.StatusCode), zap.String("body", msg))
	} else {
		logger.Info("Ордер исполнен", zap.String("side", side), zap.String("market", market), zap.String("amount", amount))
	}
	return result, nil
}

func reject(result *models.TradeResult, reason string) *models.TradeResult {
	result.Success = false
	result.Error = &reason
	return result
}
