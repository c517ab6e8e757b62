package port

import (
	"context"
	"sauto-parser/internal/core/domain"
)

// FilterCodeSourcePort - источник таблицы кодов производителей и моделей.
type FilterCodeSourcePort interface {
	LoadFilterCodes(ctx context.Context) ([]domain.ManufacturerCode, error)
}
