// Package news собирает свежие новости по рынку через Tavily Search API.
// Оценка тональности выполняется потребителем результата.
package news

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/skalibog/marketsnap/internal/config"
	"github.com/skalibog/marketsnap/pkg/logger"
	"github.com/skalibog/marketsnap/pkg/models"
	"go.uber.org/zap"
)

// MaxContentRunes длина текста статьи в результате
const MaxContentRunes = 500

// ErrMissingAPIKey ключ Tavily не задан
var ErrMissingAPIKey = errors.New("TAVILY_API_KEY не задан")

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
	Topic         string `json:"topic"`
	Days          int    `json:"days"`
}

type searchResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       *string `json:"content"`
		PublishedDate string  `json:"published_date"`
		Score         float64 `json:"score"`
	} `json:"results"`
}

// TavilyClient клиент поиска новостей
type TavilyClient struct {
	http   *resty.Client
	config config.NewsConfig
	clock  models.Clock
}

// NewTavilyClient создает клиент Tavily
func NewTavilyClient(cfg config.NewsConfig) *TavilyClient {
	return &TavilyClient{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.URL, "/")).
			SetTimeout(30 * time.Second),
		config: cfg,
		clock:  time.Now,
	}
}

// Collect ищет новости за последние сутки. Пустой query заменяется запросом из конфигурации.
func (c *TavilyClient) Collect(ctx context.Context, query string) (*models.NewsDigest, error) {
	if c.config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if query == "" {
		query = c.config.Query
	}

	var out searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(searchRequest{
			APIKey:      c.config.APIKey,
			Query:       query,
			SearchDepth: "advanced",
			MaxResults:  c.config.MaxResults,
			Topic:       "news",
			Days:        c.config.Days,
		}).
		ForceContentType("application/json").
		SetResult(&out).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса новостей: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ошибка запроса новостей: статус %d: %s", resp.StatusCode(), resp.String())
	}

	articles := make([]models.Article, 0, len(out.Results))
	for _, r := range out.Results {
		var content string
		if r.Content != nil {
			content = truncate(*r.Content, MaxContentRunes)
		}
		articles = append(articles, models.Article{
			Title:         r.Title,
			URL:           r.URL,
			Content:       content,
			PublishedDate: r.PublishedDate,
			Score:         r.Score,
		})
	}

	logger.Info("Новости собраны", zap.String("query", query), zap.Int("count", len(articles)))

	return &models.NewsDigest{
		Timestamp:     models.FormatKST(c.clock()),
		Query:         query,
		ArticlesCount: len(articles),
		Articles:      articles,
	}, nil
}

// truncate обрезает строку по символам, а не по байтам
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
