package usecase

import (
	"context"
	"fmt"
	"sauto-parser/internal/core/domain"
	"sync"

	"github.com/rs/zerolog/log"
)

// AccumulateRecordsUseCase собирает записи, пришедшие из очереди, в таблицу в памяти.
type AccumulateRecordsUseCase struct {
	mu    sync.Mutex
	table *domain.Table
}

// NewAccumulateRecordsUseCase создает новый экземпляр use case.
func NewAccumulateRecordsUseCase(columns []string) *AccumulateRecordsUseCase {
	return &AccumulateRecordsUseCase{table: domain.NewTable(columns...)}
}

// Execute добавляет запись в таблицу. Запись с чужим набором колонок отклоняется.
func (uc *AccumulateRecordsUseCase) Execute(_ context.Context, record domain.Record) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.table.Append(record); err != nil {
		return fmt.Errorf("failed to accumulate record: %w", err)
	}
	id, _ := record.Get(domain.FieldID)
	log.Debug().Str("advert_id", id.String()).Int("rows", uc.table.Len()).Msg("AccumulateRecords: record added")
	return nil
}

// Snapshot возвращает копию уже собранных строк.
func (uc *AccumulateRecordsUseCase) Snapshot() (*domain.Table, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	out := domain.NewTable(uc.table.Columns()...)
	for _, r := range uc.table.Rows() {
		if err := out.Append(r); err != nil {
			return nil, fmt.Errorf("failed to copy accumulated record: %w", err)
		}
	}
	return out, nil
}
