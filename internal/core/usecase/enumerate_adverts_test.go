package usecase

import (
	"context"
	"errors"
	"testing"

	"sauto-parser/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRefs(t *testing.T, uc *EnumerateAdvertsUseCase) ([]int64, error) {
	t.Helper()
	var ids []int64
	for ref, err := range uc.Execute(context.Background(), domain.ResolvedFilter{}) {
		if err != nil {
			return ids, err
		}
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

func TestEnumerate_UntilEmpty(t *testing.T) {
	search := &fakeSearch{pages: map[int]*domain.SearchPage{
		1: {Adverts: refs(1, 2)},
		2: {Adverts: refs(3)},
	}}
	uc := NewEnumerateAdvertsUseCase(search, domain.PagingUntilEmpty, 0)

	ids, err := collectRefs(t, uc)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Equal(t, []int{1, 2, 3}, search.fetched, "stops after the first empty page")
}

func TestEnumerate_EmptyFirstPage(t *testing.T) {
	search := &fakeSearch{}
	uc := NewEnumerateAdvertsUseCase(search, domain.PagingAuto, 0)

	ids, err := collectRefs(t, uc)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Equal(t, []int{1}, search.fetched)
}

func TestEnumerate_AutoFollowsPageList(t *testing.T) {
	search := &fakeSearch{pages: map[int]*domain.SearchPage{
		1: {Adverts: refs(1), Pages: []int{1, 2, 3}},
		2: {Adverts: refs(2)},
		3: {Adverts: refs(3)},
	}}
	uc := NewEnumerateAdvertsUseCase(search, domain.PagingAuto, 0)

	ids, err := collectRefs(t, uc)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Equal(t, []int{1, 2, 3}, search.fetched, "page 1 is not refetched")
}

func TestEnumerate_PageListKeepsEmptyPagesGoing(t *testing.T) {
	search := &fakeSearch{pages: map[int]*domain.SearchPage{
		1: {Adverts: refs(1), Pages: []int{1, 2, 3}},
		3: {Adverts: refs(3)},
	}}
	uc := NewEnumerateAdvertsUseCase(search, domain.PagingPageList, 0)

	ids, err := collectRefs(t, uc)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
}

func TestEnumerate_MaxPages(t *testing.T) {
	pages := map[int]*domain.SearchPage{
		1: {Adverts: refs(1), Pages: []int{1, 2, 3}},
		2: {Adverts: refs(2)},
		3: {Adverts: refs(3)},
	}

	for _, mode := range []domain.PagingMode{domain.PagingPageList, domain.PagingUntilEmpty} {
		t.Run(string(mode), func(t *testing.T) {
			search := &fakeSearch{pages: pages}
			uc := NewEnumerateAdvertsUseCase(search, mode, 2)

			ids, err := collectRefs(t, uc)
			require.NoError(t, err)
			assert.Equal(t, []int64{1, 2}, ids)
			assert.Equal(t, []int{1, 2}, search.fetched)
		})
	}
}

func TestEnumerate_FetchErrorEndsSequence(t *testing.T) {
	boom := &domain.TransportError{URL: "http://example/hledani", StatusCode: 502, Err: errors.New("bad gateway")}
	search := &fakeSearch{
		pages: map[int]*domain.SearchPage{1: {Adverts: refs(1, 2)}},
		fail:  map[int]error{2: boom},
	}
	uc := NewEnumerateAdvertsUseCase(search, domain.PagingUntilEmpty, 0)

	ids, err := collectRefs(t, uc)
	assert.Equal(t, []int64{1, 2}, ids)
	var transport *domain.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, 502, transport.StatusCode)
	assert.Equal(t, []int{1, 2}, search.fetched)
}

func TestEnumerate_LazyAndRestartable(t *testing.T) {
	search := &fakeSearch{pages: map[int]*domain.SearchPage{1: {Adverts: refs(1, 2, 3)}}}
	uc := NewEnumerateAdvertsUseCase(search, domain.PagingUntilEmpty, 0)

	seq := uc.Execute(context.Background(), domain.ResolvedFilter{})
	assert.Empty(t, search.fetched, "nothing is fetched before ranging")

	for ref, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, int64(1), ref.ID)
		break
	}
	assert.Equal(t, []int{1}, search.fetched, "early break stops fetching")

	ids, err := collectRefs(t, uc)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestEnumerate_CancelledContext(t *testing.T) {
	search := &fakeSearch{pages: map[int]*domain.SearchPage{1: {Adverts: refs(1)}}}
	uc := NewEnumerateAdvertsUseCase(search, domain.PagingUntilEmpty, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, err := range uc.Execute(ctx, domain.ResolvedFilter{}) {
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Empty(t, search.fetched)
}
