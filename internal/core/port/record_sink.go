package port

import (
	"context"
	"sauto-parser/internal/core/domain"
)

// RecordSinkPort получает каждую принятую запись после извлечения.
type RecordSinkPort interface {
	Save(ctx context.Context, record domain.Record) error
}
