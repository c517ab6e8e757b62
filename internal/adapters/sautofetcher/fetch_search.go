package sautofetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sauto-parser/internal/core/domain"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Разделы ответа, которые не относятся ни к объявлениям, ни к пагинации.
var ignoredSearchSections = []string{
	"ad",             // рекламные блоки
	"importKeys",     // метаданные импорта
	"checkBox",       // состояние чекбоксов UI
	"priorityAdvert", // продвигаемые объявления
	"codebook",       // справочник фильтров
	"filter",         // параметры фильтров
	"manufacturer",   // производители с количеством
	"equipments",     // метаданные оборудования
}

type searchAdvert struct {
	ManufacturerName string  `json:"manufacturer_name"`
	ModelName        string  `json:"model_name"`
	AdvertID         flexInt `json:"advert_id"`
}

type searchPaging struct {
	Pages []struct {
		I flexInt `json:"i"`
	} `json:"pages"`
}

// flexInt принимает и число, и строку с числом ("2").
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", string(data), err)
	}
	*f = flexInt(v)
	return nil
}

// FetchSearchPage запрашивает одну страницу поиска и разбирает JSON-ответ.
func (a *SautoFetcherAdapter) FetchSearchPage(ctx context.Context, filter domain.ResolvedFilter, page int) (*domain.SearchPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	targetURL := a.baseURL + a.search + "?" + filter.Query(page).Encode()

	body, err := a.visit(targetURL)
	if err != nil {
		return nil, err
	}

	result, err := parseSearchResponse(body)
	if err != nil {
		return nil, fmt.Errorf("sauto adapter: page %d (%s): %w", page, targetURL, err)
	}
	result.Number = page
	log.Debug().
		Int("page", page).
		Int("adverts", len(result.Adverts)).
		Int("result_size", result.ResultSize).
		Msg("SautoFetcher: search page parsed")
	return result, nil
}

func parseSearchResponse(body []byte) (*domain.SearchPage, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(body, &sections); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	var dropped []string
	for _, key := range ignoredSearchSections {
		if _, ok := sections[key]; ok {
			delete(sections, key)
			dropped = append(dropped, key)
		}
	}
	if len(dropped) > 0 {
		log.Trace().Strs("sections", dropped).Msg("SautoFetcher: dropped unrelated search sections")
	}

	page := &domain.SearchPage{}

	if raw, ok := sections["advert"]; ok && !isNull(raw) {
		var adverts []searchAdvert
		if err := json.Unmarshal(raw, &adverts); err != nil {
			return nil, fmt.Errorf("failed to decode advert section: %w", err)
		}
		page.Adverts = make([]domain.AdvertRef, 0, len(adverts))
		for _, ad := range adverts {
			page.Adverts = append(page.Adverts, domain.AdvertRef{
				Manufacturer: ad.ManufacturerName,
				Model:        ad.ModelName,
				ID:           int64(ad.AdvertID),
			})
		}
	}

	if raw, ok := sections["paging"]; ok && !isNull(raw) {
		var paging searchPaging
		if err := json.Unmarshal(raw, &paging); err != nil {
			return nil, fmt.Errorf("failed to decode paging section: %w", err)
		}
		for _, p := range paging.Pages {
			page.Pages = append(page.Pages, int(p.I))
		}
	}

	if raw, ok := sections["resultSize"]; ok && !isNull(raw) {
		var size flexInt
		if err := json.Unmarshal(raw, &size); err != nil {
			return nil, fmt.Errorf("failed to decode resultSize: %w", err)
		}
		page.ResultSize = int(size)
	}

	return page, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
