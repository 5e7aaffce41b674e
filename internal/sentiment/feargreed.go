package sentiment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/models"
)

type fngResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// FearGreedClient клиент индекса страха и жадности alternative.me
type FearGreedClient struct {
	http  *resty.Client
	limit int
	clock models.Clock
}

// NewFearGreedClient создает клиент индекса
func NewFearGreedClient(cfg config.SentimentConfig) *FearGreedClient {
	return &FearGreedClient{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.URL, "/")).
			SetTimeout(10 * time.Second),
		limit: cfg.Limit,
		clock: time.Now,
	}
}

// Collect получает текущее значение и историю, от новых к старым
func (c *FearGreedClient) Collect(ctx context.Context) (*models.FearGreedIndex, error) {
	var out fngResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":  strconv.Itoa(c.limit),
			"format": "json",
		}).
		ForceContentType("application/json").
		SetResult(&out).
		Get("/fng/")
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса индекса: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ошибка запроса индекса: статус %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("индекс страха и жадности: пустой ответ")
	}

	history := make([]models.FearGreedPoint, len(out.Data))
	for i, d := range out.Data {
		ts, err := strconv.ParseInt(d.Timestamp, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("запись %d: некорректное время %q: %w", i, d.Timestamp, err)
		}
		value, err := strconv.Atoi(d.Value)
		if err != nil {
			return nil, fmt.Errorf("запись %d: некорректное значение %q: %w", i, d.Value, err)
		}
		history[i] = models.FearGreedPoint{
			Date:           time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Value:          value,
			Classification: d.ValueClassification,
		}
	}

	return &models.FearGreedIndex{
		Timestamp: models.FormatKST(c.clock()),
		Current:   history[0],
		History:   history,
	}, nil
}
