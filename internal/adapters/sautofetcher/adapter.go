package sautofetcher

import (
	"fmt"
	"sauto-parser/internal/core/domain"
	"sauto-parser/internal/core/port"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSearchPath = "/hledani"
	// detailPathFormat: /osobni/detail/{производитель}/{модель}/{id}
	detailPathFormat = "/osobni/detail/%s/%s/%d"
)

// Config - настройки адаптера sauto.cz.
type Config struct {
	BaseURL        string // например, "https://www.sauto.cz"
	SearchPath     string
	AllowedDomains []string // пусто - любые домены

	Parallelism    int
	Delay          time.Duration
	RandomDelay    time.Duration
	RequestTimeout time.Duration

	Equipment       *domain.EquipmentVocabulary
	EquipmentPolicy domain.EquipmentPolicy
}

// SautoFetcherAdapter отвечает за все взаимодействия с sauto.cz.
// Он хранит один родительский colly.Collector, лимиты которого разделяют все клоны.
type SautoFetcherAdapter struct {
	collector *colly.Collector
	baseURL   string
	search    string
	extractor *DetailExtractor
}

var _ port.SautoFetcherPort = (*SautoFetcherAdapter)(nil)

// NewSautoFetcherAdapter - единый конструктор для поиска и детальных страниц.
func NewSautoFetcherAdapter(cfg Config) (*SautoFetcherAdapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("sauto adapter: base URL is required")
	}
	if cfg.SearchPath == "" {
		cfg.SearchPath = DefaultSearchPath
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.Equipment == nil {
		cfg.Equipment = domain.DefaultEquipment
	}

	// Перечисление можно запускать повторно, поэтому повторные визиты разрешены.
	opts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if len(cfg.AllowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(cfg.AllowedDomains...))
	}
	c := colly.NewCollector(opts...)
	if cfg.RequestTimeout > 0 {
		c.SetRequestTimeout(cfg.RequestTimeout)
	}

	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Parallelism,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("sauto adapter: failed to set limit rule: %w", err)
	}

	return &SautoFetcherAdapter{
		collector: c,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		search:    cfg.SearchPath,
		extractor: NewDetailExtractor(cfg.Equipment, cfg.EquipmentPolicy),
	}, nil
}

// requestCollector возвращает "одноразовый" клон. Clone не копирует обработчики,
// поэтому маскировка и логирование вешаются на каждый клон заново.
func (a *SautoFetcherAdapter) requestCollector() *colly.Collector {
	c := a.collector.Clone()

	extensions.RandomUserAgent(c)
	extensions.Referer(c)

	c.OnRequest(func(r *colly.Request) {
		log.Debug().Str("url", r.URL.String()).Msg("SautoFetcher: making request")
	})
	c.OnError(func(r *colly.Response, err error) {
		log.Warn().Err(err).
			Str("url", r.Request.URL.String()).
			Int("status", r.StatusCode).
			Msg("SautoFetcher: request failed")
	})
	return c
}

// visit выполняет один GET и возвращает тело ответа.
func (a *SautoFetcherAdapter) visit(targetURL string) ([]byte, error) {
	c := a.requestCollector()

	var body []byte
	var status int
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, _ error) {
		status = r.StatusCode
	})

	if err := c.Visit(targetURL); err != nil {
		return nil, &domain.TransportError{URL: targetURL, StatusCode: status, Err: err}
	}
	c.Wait()

	if body == nil {
		return nil, &domain.TransportError{URL: targetURL, StatusCode: status, Err: fmt.Errorf("empty response")}
	}
	return body, nil
}

func (a *SautoFetcherAdapter) detailURL(ref domain.AdvertRef) string {
	return a.baseURL + fmt.Sprintf(detailPathFormat, domain.Slug(ref.Manufacturer), domain.Slug(ref.Model), ref.ID)
}
