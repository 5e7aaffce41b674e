package portfolio

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skalibog/marketsnap/internal/exchange"
	"github.com/skalibog/marketsnap/pkg/models"
)

const quoteCurrency = "KRW"

// AccountSource остатки счета и текущие цены
type AccountSource interface {
	GetAccounts(ctx context.Context) ([]exchange.Account, error)
	GetTickers(ctx context.Context, markets []string) ([]models.Ticker, error)
}

// Service оценивает портфель по текущим ценам
type Service struct {
	source AccountSource
	clock  models.Clock
}

// NewService создает сервис портфеля
func NewService(source AccountSource) *Service {
	return &Service{source: source, clock: time.Now}
}

// Get возвращает баланс KRW, позиции с оценкой и итоговую доходность
func (s *Service) Get(ctx context.Context) (*models.Portfolio, error) {
	accounts, err := s.source.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}

	var (
		krw      float64
		holdings = []models.Holding{}
		markets  []string
	)
	for _, acc := range accounts {
		balance, err := parseAmount(acc.Balance)
		if err != nil {
			return nil, fmt.Errorf("баланс %s: %w", acc.Currency, err)
		}
		if acc.Currency == quoteCurrency {
			krw = balance
			continue
		}
		if balance <= 0 {
			continue
		}
		avg, err := parseAmount(acc.AvgBuyPrice)
		if err != nil {
			return nil, fmt.Errorf("средняя цена %s: %w", acc.Currency, err)
		}
		markets = append(markets, quoteCurrency+"-"+acc.Currency)
		holdings = append(holdings, models.Holding{
			Currency:    acc.Currency,
			Balance:     balance,
			AvgBuyPrice: avg,
		})
	}

	if len(markets) > 0 {
		tickers, err := s.source.GetTickers(ctx, markets)
		if err != nil {
			return nil, err
		}
		for _, t := range tickers {
			currency := strings.TrimPrefix(t.Market, quoteCurrency+"-")
			for i := range holdings {
				h := &holdings[i]
				if h.Currency != currency {
					continue
				}
				h.CurrentPrice = t.TradePrice
				h.EvalAmount = h.Balance * t.TradePrice
				if h.AvgBuyPrice > 0 {
					h.ProfitLossPct = models.Round((t.TradePrice-h.AvgBuyPrice)/h.AvgBuyPrice*100, 2)
				}
				break
			}
		}
	}

	totalEval := krw
	var invested float64
	for _, h := range holdings {
		totalEval += h.EvalAmount
		invested += h.Balance * h.AvgBuyPrice
	}

	var pl float64
	if invested > 0 {
		pl = models.Round((totalEval-invested-krw)/math.Max(invested, 1)*100, 2)
	}

	return &models.Portfolio{
		Timestamp:          models.FormatKST(s.clock()),
		KRWBalance:         krw,
		Holdings:           holdings,
		TotalEval:          totalEval,
		TotalInvested:      invested + krw,
		TotalProfitLossPct: pl,
	}, nil
}

func parseAmount(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
