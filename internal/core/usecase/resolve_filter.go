package usecase

import (
	"context"
	"fmt"
	"sauto-parser/internal/core/domain"
	"sauto-parser/internal/core/port"

	"github.com/rs/zerolog/log"
)

// ResolveFilterUseCase собирает таблицу кодов из всех источников и проверяет
// по ней фильтр поиска. Выполняется до любого сетевого запроса к сайту.
type ResolveFilterUseCase struct {
	base    []domain.ManufacturerCode
	sources []port.FilterCodeSourcePort
}

// NewResolveFilterUseCase: base - встроенные коды; sources применяются по порядку
// поверх них, более поздний источник перезаписывает совпадающие имена.
func NewResolveFilterUseCase(base []domain.ManufacturerCode, sources ...port.FilterCodeSourcePort) *ResolveFilterUseCase {
	return &ResolveFilterUseCase{base: base, sources: sources}
}

func (uc *ResolveFilterUseCase) Execute(ctx context.Context, filter domain.SearchFilter) (domain.ResolvedFilter, error) {
	codes := domain.NewFilterCodeTable(uc.base...)
	for _, src := range uc.sources {
		entries, err := src.LoadFilterCodes(ctx)
		if err != nil {
			return domain.ResolvedFilter{}, fmt.Errorf("failed to load filter codes: %w", err)
		}
		codes.Merge(entries...)
	}
	log.Debug().Int("manufacturers", codes.Len()).Msg("ResolveFilter: code table ready")

	resolved, err := filter.Validate(codes)
	if err != nil {
		return domain.ResolvedFilter{}, err
	}
	log.Info().
		Str("manufacturer", filter.Manufacturer).
		Int("manufacturer_code", resolved.ManufacturerCode).
		Str("model", filter.Model).
		Int("model_code", resolved.ModelCode).
		Msg("ResolveFilter: filter validated")
	return resolved, nil
}

// StaticFilterCodes - источник кодов из уже загруженного списка (файл фильтра).
type StaticFilterCodes []domain.ManufacturerCode

func (s StaticFilterCodes) LoadFilterCodes(context.Context) ([]domain.ManufacturerCode, error) {
	return s, nil
}
