package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sauto-parser/internal/core/domain"
)

// fakeSearch отдает заранее заданные страницы и запоминает запрошенные номера.
type fakeSearch struct {
	mu      sync.Mutex
	pages   map[int]*domain.SearchPage
	fail    map[int]error
	fetched []int
}

func (f *fakeSearch) FetchSearchPage(_ context.Context, _ domain.ResolvedFilter, page int) (*domain.SearchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, page)
	if err, ok := f.fail[page]; ok {
		return nil, err
	}
	if p, ok := f.pages[page]; ok {
		cp := *p
		return &cp, nil
	}
	return &domain.SearchPage{}, nil
}

func refs(ids ...int64) []domain.AdvertRef {
	out := make([]domain.AdvertRef, len(ids))
	for i, id := range ids {
		out[i] = domain.AdvertRef{Manufacturer: "Škoda", Model: "Fabia", ID: id}
	}
	return out
}

// fakeDetails строит запись из ID; для ID из errs возвращает ошибку.
type fakeDetails struct {
	mu     sync.Mutex
	errs   map[int64]error
	delay  func(id int64) time.Duration
	called []int64
}

func (f *fakeDetails) FetchAdDetails(ctx context.Context, ref domain.AdvertRef) (domain.Record, error) {
	f.mu.Lock()
	f.called = append(f.called, ref.ID)
	f.mu.Unlock()

	if f.delay != nil {
		select {
		case <-time.After(f.delay(ref.ID)):
		case <-ctx.Done():
			return domain.Record{}, ctx.Err()
		}
	}
	if err, ok := f.errs[ref.ID]; ok {
		return domain.Record{}, err
	}
	return testRecord(ref.ID), nil
}

var testColumns = []string{domain.FieldID, domain.FieldManufacturer, domain.FieldPrice}

func testRecord(id int64) domain.Record {
	return domain.NewRecordBuilder(3).
		SetInt(domain.FieldID, id).
		SetString(domain.FieldManufacturer, "Škoda").
		SetInt(domain.FieldPrice, id*1000).
		Build()
}

// recordingSink запоминает ID сохраненных записей.
type recordingSink struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (s *recordingSink) Save(_ context.Context, r domain.Record) error {
	if s.err != nil {
		return s.err
	}
	v, ok := r.Get(domain.FieldID)
	if !ok {
		return fmt.Errorf("record without id")
	}
	s.mu.Lock()
	s.ids = append(s.ids, v.Int())
	s.mu.Unlock()
	return nil
}

func tableIDs(t *domain.Table) []int64 {
	var ids []int64
	for _, r := range t.Rows() {
		v, _ := r.Get(domain.FieldID)
		ids = append(ids, v.Int())
	}
	return ids
}
