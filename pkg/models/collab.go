package models

import "github.com/shopspring/decimal"

// Article новость из поисковой выдачи
type Article struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"published_date"`
	Score         float64 `json:"score"`
}

// NewsDigest результат сбора новостей
type NewsDigest struct {
	Timestamp     string    `json:"timestamp"`
	Query         string    `json:"query"`
	ArticlesCount int       `json:"articles_count"`
	Articles      []Article `json:"articles"`
}

// FearGreedPoint значение индекса страха и жадности за день
type FearGreedPoint struct {
	Date           string `json:"date"`
	Value          int    `json:"value"`
	Classification string `json:"classification"`
}

// FearGreedIndex текущее значение и история за 7 дней
type FearGreedIndex struct {
	Timestamp string           `json:"timestamp"`
	Current   FearGreedPoint   `json:"current"`
	History   []FearGreedPoint `json:"history_7d"`
}

// Holding позиция в портфеле
type Holding struct {
	Currency      string  `json:"currency"`
	Balance       float64 `json:"balance"`
	AvgBuyPrice   float64 `json:"avg_buy_price"`
	CurrentPrice  float64 `json:"current_price"`
	EvalAmount    float64 `json:"eval_amount"`
	ProfitLossPct float64 `json:"profit_loss_pct"`
}

// Portfolio оценка портфеля
type Portfolio struct {
	Timestamp          string    `json:"timestamp"`
	KRWBalance         float64   `json:"krw_balance"`
	Holdings           []Holding `json:"holdings"`
	TotalEval          float64   `json:"total_eval"`
	TotalInvested      float64   `json:"total_invested"`
	TotalProfitLossPct float64   `json:"total_profit_loss_pct"`
}

// TradeResult результат попытки исполнения ордера
type TradeResult struct {
	Success   bool        `json:"success"`
	DryRun    bool        `json:"dry_run"`
	Side      string      `json:"side"`
	Market    string      `json:"market"`
	Amount    string      `json:"amount"`
	Response  interface{} `json:"response,omitempty"`
	Error     *string     `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Failed ордер не исполнен: процесс завершается с кодом 1
func (r *TradeResult) Failed() bool {
	return !r.Success
}

// ChartCapture результат снятия скриншота графика
type ChartCapture struct {
	Timestamp string `json:"timestamp"`
	ChartPath string `json:"chart_path"`
}

// NotifyResult результат отправки уведомления
type NotifyResult struct {
	Success bool   `json:"success"`
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Round округляет значение до places знаков (половина от нуля по кратчайшей
// десятичной записи числа: Round(2.675, 2) == 2.68)
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
