package usecase

import (
	"context"
	"errors"
	"testing"

	"sauto-parser/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCodes struct{ err error }

func (f failingCodes) LoadFilterCodes(context.Context) ([]domain.ManufacturerCode, error) {
	return nil, f.err
}

var builtin = []domain.ManufacturerCode{
	{Name: "škoda", Code: 93, Models: map[string]int{"fabia": 707}},
}

func TestResolveFilter_Builtin(t *testing.T) {
	uc := NewResolveFilterUseCase(builtin)

	got, err := uc.Execute(context.Background(), domain.SearchFilter{Manufacturer: "Skoda", Model: "FABIA"})
	require.NoError(t, err)
	assert.Equal(t, 93, got.ManufacturerCode)
	assert.Equal(t, 707, got.ModelCode)
	assert.Equal(t, "Skoda", got.Manufacturer)
}

func TestResolveFilter_LaterSourcesWin(t *testing.T) {
	db := StaticFilterCodes{{Name: "Tatra", Code: 120, Models: map[string]int{"613": 5001}}}
	file := StaticFilterCodes{{Name: "Škoda", Code: 93, Models: map[string]int{"fabia": 808, "octavia": 709}}}
	uc := NewResolveFilterUseCase(builtin, db, file)

	got, err := uc.Execute(context.Background(), domain.SearchFilter{Manufacturer: "škoda", Model: "fabia"})
	require.NoError(t, err)
	assert.Equal(t, 808, got.ModelCode)

	got, err = uc.Execute(context.Background(), domain.SearchFilter{Manufacturer: "tatra", Model: "613"})
	require.NoError(t, err)
	assert.Equal(t, 120, got.ManufacturerCode)
	assert.Equal(t, 5001, got.ModelCode)
}

func TestResolveFilter_UnknownManufacturer(t *testing.T) {
	uc := NewResolveFilterUseCase(builtin)

	_, err := uc.Execute(context.Background(), domain.SearchFilter{Manufacturer: "skodda"})
	var unknown *domain.UnknownFilterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "manufacturer", unknown.Kind)
	assert.Equal(t, "škoda", unknown.Suggestion)
}

func TestResolveFilter_SourceError(t *testing.T) {
	boom := errors.New("relation \"manufacturer_codes\" does not exist")
	uc := NewResolveFilterUseCase(builtin, failingCodes{err: boom})

	_, err := uc.Execute(context.Background(), domain.SearchFilter{})
	assert.ErrorIs(t, err, boom)
}
