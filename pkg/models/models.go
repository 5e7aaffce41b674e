package models

// Candle представляет свечу. JSON-имена совпадают с форматом Upbit,
// чтобы массивы свечей в снимке оставались совместимыми с исходным выводом.
// Поля изменения цены есть только у дневных свечей, Unit только у минутных.
type Candle struct {
	Market        string   `json:"market"`
	DateTimeUTC   string   `json:"candle_date_time_utc,omitempty"`
	DateTime      string   `json:"candle_date_time_kst"`
	Open          float64  `json:"opening_price"`
	High          float64  `json:"high_price"`
	Low           float64  `json:"low_price"`
	Close         float64  `json:"trade_price"`
	Timestamp     int64    `json:"timestamp"`
	AccTradePrice float64  `json:"candle_acc_trade_price"`
	Volume        float64  `json:"candle_acc_trade_volume"`
	PrevClose     *float64 `json:"prev_closing_price,omitempty"`
	ChangePrice   *float64 `json:"change_price,omitempty"`
	ChangeRate    *float64 `json:"change_rate,omitempty"`
	Unit          int      `json:"unit,omitempty"`
}

// Стороны сделки в терминах Upbit
const (
	SideBid = "BID"
	SideAsk = "ASK"
)

// Trade представляет сделку из ленты
type Trade struct {
	Price     float64 `json:"trade_price"`
	Volume    float64 `json:"trade_volume"`
	Side      string  `json:"ask_bid"`
	Timestamp int64   `json:"timestamp"`
}

// OrderBook представляет сводку стакана заявок
type OrderBook struct {
	Market       string  `json:"market"`
	TotalBidSize float64 `json:"total_bid_size"`
	TotalAskSize float64 `json:"total_ask_size"`
}

// Ticker представляет текущее состояние рынка
type Ticker struct {
	Market           string  `json:"market"`
	TradePrice       float64 `json:"trade_price"`
	SignedChangeRate float64 `json:"signed_change_rate"`
	AccTradeVolume24 float64 `json:"acc_trade_volume_24h"`
}

// MACD композитное значение MACD
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// Bollinger полосы Боллинджера
type Bollinger struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Stochastic значения стохастического осциллятора
type Stochastic struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// IndicatorSet блок indicators снимка
type IndicatorSet struct {
	SMA20      float64    `json:"sma_20"`
	EMA10      float64    `json:"ema_10"`
	RSI14      float64    `json:"rsi_14"`
	MACD       MACD       `json:"macd"`
	Bollinger  Bollinger  `json:"bollinger"`
	Stochastic Stochastic `json:"stochastic"`
}

// OrderBookSummary сводка стакана в снимке
type OrderBookSummary struct {
	BidTotal float64 `json:"bid_total"`
	AskTotal float64 `json:"ask_total"`
	Ratio    float64 `json:"ratio"`
}

// TradePressure распределение объема сделок по сторонам
type TradePressure struct {
	BuyVolume  float64 `json:"buy_volume"`
	SellVolume float64 `json:"sell_volume"`
}

// MarketSnapshot снимок рынка. Создается один раз за запуск и не изменяется.
type MarketSnapshot struct {
	Timestamp     string           `json:"timestamp"`
	Market        string           `json:"market"`
	CurrentPrice  float64          `json:"current_price"`
	ChangeRate24h float64          `json:"change_rate_24h"`
	Volume24h     float64          `json:"volume_24h"`
	Indicators    IndicatorSet     `json:"indicators"`
	OrderBook     OrderBookSummary `json:"orderbook"`
	TradePressure TradePressure    `json:"trade_pressure"`
	CandlesDaily  []Candle         `json:"candles_daily"`
	Candles4h     []Candle         `json:"candles_4h"`
}
