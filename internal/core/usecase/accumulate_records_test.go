package usecase

import (
	"context"
	"sync"
	"testing"

	"sauto-parser/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(t *testing.T, uc *AccumulateRecordsUseCase) *domain.Table {
	t.Helper()
	table, err := uc.Snapshot()
	require.NoError(t, err)
	return table
}

func TestAccumulate_AppendsInOrder(t *testing.T) {
	uc := NewAccumulateRecordsUseCase(testColumns)
	for _, id := range []int64{7, 3, 9} {
		require.NoError(t, uc.Execute(context.Background(), testRecord(id)))
	}
	assert.Equal(t, []int64{7, 3, 9}, tableIDs(snapshot(t, uc)))
}

func TestAccumulate_RejectsForeignColumns(t *testing.T) {
	uc := NewAccumulateRecordsUseCase(testColumns)
	foreign := domain.NewRecordBuilder(1).SetInt(domain.FieldID, 1).Build()

	assert.Error(t, uc.Execute(context.Background(), foreign))
	assert.Zero(t, snapshot(t, uc).Len())
}

func TestAccumulate_SnapshotIsIndependent(t *testing.T) {
	uc := NewAccumulateRecordsUseCase(testColumns)
	require.NoError(t, uc.Execute(context.Background(), testRecord(1)))

	snap := snapshot(t, uc)
	require.NoError(t, uc.Execute(context.Background(), testRecord(2)))
	assert.Equal(t, 1, snap.Len())
	assert.Equal(t, 2, snapshot(t, uc).Len())
}

func TestAccumulate_ColumnsFromFirstRecord(t *testing.T) {
	uc := NewAccumulateRecordsUseCase(nil)
	require.NoError(t, uc.Execute(context.Background(), testRecord(4)))

	snap := snapshot(t, uc)
	assert.Equal(t, testColumns, snap.Columns())
	assert.Equal(t, []int64{4}, tableIDs(snap))
}

func TestAccumulate_Concurrent(t *testing.T) {
	uc := NewAccumulateRecordsUseCase(testColumns)

	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			assert.NoError(t, uc.Execute(context.Background(), testRecord(id)))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, snapshot(t, uc).Len())
}
