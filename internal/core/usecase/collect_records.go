package usecase

import (
	"context"
	"fmt"
	"sauto-parser/internal/core/domain"
	"sauto-parser/internal/core/port"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// CollectRecordsUseCase связывает перечисление объявлений, загрузку деталей и
// сборку таблицы.
type CollectRecordsUseCase struct {
	enumerator *EnumerateAdvertsUseCase
	details    port.AdDetailsFetcherPort
	columns    []string
	sinks      []port.RecordSinkPort
	workers    int
}

// NewCollectRecordsUseCase создает use case. workers <= 1 - строго
// последовательная обработка.
func NewCollectRecordsUseCase(
	enumerator *EnumerateAdvertsUseCase,
	details port.AdDetailsFetcherPort,
	columns []string,
	workers int,
	sinks ...port.RecordSinkPort,
) *CollectRecordsUseCase {
	if workers < 1 {
		workers = 1
	}
	return &CollectRecordsUseCase{
		enumerator: enumerator,
		details:    details,
		columns:    columns,
		sinks:      sinks,
		workers:    workers,
	}
}

// Execute выполняет один сбор. Объявления, которые не удалось разобрать,
// логируются и пропускаются; ошибки транспорта и прочие прерывают запуск.
// Строки идут в порядке перечисления и при последовательной, и при пуловой обработке.
func (uc *CollectRecordsUseCase) Execute(ctx context.Context, filter domain.ResolvedFilter) (*domain.Table, domain.RunStats, error) {
	log.Info().Int("workers", uc.workers).Msg("CollectRecords: starting run")

	var (
		records []domain.Record
		stats   domain.RunStats
		err     error
	)
	if uc.workers == 1 {
		records, stats, err = uc.sequential(ctx, filter)
	} else {
		records, stats, err = uc.pooled(ctx, filter)
	}
	if err != nil {
		return nil, stats, err
	}

	table := domain.NewTable(uc.columns...)
	for _, rec := range records {
		if err := table.Append(rec); err != nil {
			return nil, stats, fmt.Errorf("collect records: %w", err)
		}
		for _, sink := range uc.sinks {
			if err := sink.Save(ctx, rec); err != nil {
				return nil, stats, fmt.Errorf("collect records: sink failed: %w", err)
			}
		}
	}

	log.Info().
		Int("enumerated", stats.Enumerated).
		Int("accepted", stats.Accepted).
		Int("skipped", stats.Skipped).
		Msg("CollectRecords: run finished")
	return table, stats, nil
}

func (uc *CollectRecordsUseCase) sequential(ctx context.Context, filter domain.ResolvedFilter) ([]domain.Record, domain.RunStats, error) {
	var records []domain.Record
	var stats domain.RunStats

	for ref, err := range uc.enumerator.Execute(ctx, filter) {
		if err != nil {
			return nil, stats, err
		}
		stats.Enumerated++

		rec, ok, err := uc.process(ctx, ref)
		if err != nil {
			return nil, stats, err
		}
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Accepted++
		records = append(records, rec)
	}
	return records, stats, nil
}

func (uc *CollectRecordsUseCase) pooled(ctx context.Context, filter domain.ResolvedFilter) ([]domain.Record, domain.RunStats, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)

	var (
		mu      sync.Mutex
		results = make(map[int]domain.Record)
		stats   domain.RunStats
		enumErr error
	)

	index := 0
	for ref, err := range uc.enumerator.Execute(gctx, filter) {
		if err != nil {
			enumErr = err
			break
		}
		stats.Enumerated++
		i := index
		index++

		g.Go(func() error {
			rec, ok, err := uc.process(gctx, ref)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if !ok {
				stats.Skipped++
				return nil
			}
			stats.Accepted++
			results[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	if enumErr != nil {
		return nil, stats, enumErr
	}

	records := make([]domain.Record, 0, len(results))
	for i := 0; i < index; i++ {
		if rec, ok := results[i]; ok {
			records = append(records, rec)
		}
	}
	return records, stats, nil
}

// process загружает и разбирает одно объявление. ok=false - объявление пропущено.
func (uc *CollectRecordsUseCase) process(ctx context.Context, ref domain.AdvertRef) (domain.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Record{}, false, err
	}
	rec, err := uc.details.FetchAdDetails(ctx, ref)
	if err != nil {
		if domain.IsSkippable(err) {
			log.Warn().Err(err).
				Int64("advert_id", ref.ID).
				Str("manufacturer", ref.Manufacturer).
				Str("model", ref.Model).
				Msg("CollectRecords: advert skipped")
			return domain.Record{}, false, nil
		}
		return domain.Record{}, false, fmt.Errorf("collect records: advert %d: %w", ref.ID, err)
	}
	log.Debug().Int64("advert_id", ref.ID).Msg("CollectRecords: advert parsed")
	return rec, true, nil
}
