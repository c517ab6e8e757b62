package usecase

import (
	"context"
	"fmt"
	"iter"
	"sauto-parser/internal/core/domain"
	"sauto-parser/internal/core/port"

	"github.com/rs/zerolog/log"
)

// EnumerateAdvertsUseCase (ListingEnumerator) обходит страницы поиска и
// отдает идентификаторы объявлений.
type EnumerateAdvertsUseCase struct {
	fetcher  port.SearchPageFetcherPort
	mode     domain.PagingMode
	maxPages int // 0 - без ограничения
}

// NewEnumerateAdvertsUseCase создает новый экземпляр EnumerateAdvertsUseCase
func NewEnumerateAdvertsUseCase(fetcher port.SearchPageFetcherPort, mode domain.PagingMode, maxPages int) *EnumerateAdvertsUseCase {
	if mode == "" {
		mode = domain.PagingAuto
	}
	return &EnumerateAdvertsUseCase{
		fetcher:  fetcher,
		mode:     mode,
		maxPages: maxPages,
	}
}

// Execute возвращает ленивую последовательность объявлений. Пока по ней не
// начали итерироваться, запросов нет; повторный обход начинает перечисление
// заново. Ошибка загрузки страницы отдается один раз как (пустой ref, err),
// после чего последовательность заканчивается.
func (uc *EnumerateAdvertsUseCase) Execute(ctx context.Context, filter domain.ResolvedFilter) iter.Seq2[domain.AdvertRef, error] {
	return func(yield func(domain.AdvertRef, error) bool) {
		first, err := uc.fetch(ctx, filter, 1)
		if err != nil {
			yield(domain.AdvertRef{}, err)
			return
		}

		mode := uc.mode
		if mode == domain.PagingAuto {
			mode = domain.PagingUntilEmpty
			if len(first.Pages) > 0 {
				mode = domain.PagingPageList
			}
		}
		log.Info().
			Str("mode", string(mode)).
			Int("result_size", first.ResultSize).
			Int("listed_pages", len(first.Pages)).
			Msg("EnumerateAdverts: starting enumeration")

		switch mode {
		case domain.PagingPageList:
			uc.walkPageList(ctx, filter, first, yield)
		default:
			uc.walkUntilEmpty(ctx, filter, first, yield)
		}
	}
}

// walkPageList проходит по индексам из paging.pages первой страницы.
// Страница 1 повторно не запрашивается.
func (uc *EnumerateAdvertsUseCase) walkPageList(ctx context.Context, filter domain.ResolvedFilter, first *domain.SearchPage, yield func(domain.AdvertRef, error) bool) {
	pages := first.Pages
	if len(pages) == 0 {
		pages = []int{1}
	}
	for _, n := range pages {
		if uc.maxPages > 0 && n > uc.maxPages {
			log.Info().Int("page", n).Int("max_pages", uc.maxPages).Msg("EnumerateAdverts: page limit reached")
			return
		}
		page := first
		if n != first.Number {
			var err error
			if page, err = uc.fetch(ctx, filter, n); err != nil {
				yield(domain.AdvertRef{}, err)
				return
			}
		}
		if !emit(page, yield) {
			return
		}
	}
}

// walkUntilEmpty запрашивает страницы 1, 2, ... пока не придет пустой список advert.
func (uc *EnumerateAdvertsUseCase) walkUntilEmpty(ctx context.Context, filter domain.ResolvedFilter, first *domain.SearchPage, yield func(domain.AdvertRef, error) bool) {
	page := first
	for n := 1; ; n++ {
		if n > 1 {
			if uc.maxPages > 0 && n > uc.maxPages {
				log.Info().Int("page", n).Int("max_pages", uc.maxPages).Msg("EnumerateAdverts: page limit reached")
				return
			}
			var err error
			if page, err = uc.fetch(ctx, filter, n); err != nil {
				yield(domain.AdvertRef{}, err)
				return
			}
		}
		if len(page.Adverts) == 0 {
			log.Info().Int("page", n).Msg("EnumerateAdverts: empty page, enumeration finished")
			return
		}
		if !emit(page, yield) {
			return
		}
	}
}

func (uc *EnumerateAdvertsUseCase) fetch(ctx context.Context, filter domain.ResolvedFilter, n int) (*domain.SearchPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Debug().Int("page", n).Msg("EnumerateAdverts: fetching page")
	page, err := uc.fetcher.FetchSearchPage(ctx, filter, n)
	if err != nil {
		return nil, fmt.Errorf("enumerate adverts: page %d: %w", n, err)
	}
	page.Number = n
	return page, nil
}

func emit(page *domain.SearchPage, yield func(domain.AdvertRef, error) bool) bool {
	for _, ref := range page.Adverts {
		if !yield(ref, nil) {
			return false
		}
	}
	return true
}
