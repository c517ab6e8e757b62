package port

import (
	"context"
	"sauto-parser/internal/core/domain"
)

// SearchPageFetcherPort получает одну страницу результатов поискового API.
type SearchPageFetcherPort interface {
	FetchSearchPage(ctx context.Context, filter domain.ResolvedFilter, page int) (*domain.SearchPage, error)
}

// AdDetailsFetcherPort загружает детальную страницу объявления и превращает ее в запись.
type AdDetailsFetcherPort interface {
	FetchAdDetails(ctx context.Context, ref domain.AdvertRef) (domain.Record, error)
}

// SautoFetcherPort объединяет все операции с sauto.cz.
type SautoFetcherPort interface {
	SearchPageFetcherPort
	AdDetailsFetcherPort
}
