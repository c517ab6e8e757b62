package postgres

import (
	"context"
	"fmt"
	"sauto-parser/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// CREATE TABLE IF NOT EXISTS manufacturer_codes (
//     name VARCHAR(255) PRIMARY KEY,
//     code INTEGER NOT NULL UNIQUE
// );
//
// CREATE TABLE IF NOT EXISTS model_codes (
//     manufacturer_code INTEGER NOT NULL REFERENCES manufacturer_codes(code),
//     name VARCHAR(255) NOT NULL,
//     code INTEGER NOT NULL,
//     PRIMARY KEY (manufacturer_code, name)
// );
const filterCodesQuery = `
	SELECT m.name AS manufacturer, m.code AS manufacturer_code, mo.name AS model, mo.code AS model_code
	FROM manufacturer_codes m
	LEFT JOIN model_codes mo ON mo.manufacturer_code = m.code
	ORDER BY m.name, mo.name
`

// Querier - часть *pgxpool.Pool, нужная адаптеру.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// FilterCodesAdapter реализует FilterCodeSourcePort: справочник кодов
// производителей и моделей sauto.cz хранится в PostgreSQL. Только чтение.
type FilterCodesAdapter struct {
	db Querier
}

func NewFilterCodesAdapter(db Querier) (*FilterCodesAdapter, error) {
	if db == nil {
		return nil, fmt.Errorf("postgres filter codes: db cannot be nil")
	}
	return &FilterCodesAdapter{db: db}, nil
}

type filterCodeRow struct {
	Manufacturer     string  `db:"manufacturer"`
	ManufacturerCode int     `db:"manufacturer_code"`
	Model            *string `db:"model"`
	ModelCode        *int    `db:"model_code"`
}

// LoadFilterCodes читает весь справочник одним запросом.
func (a *FilterCodesAdapter) LoadFilterCodes(ctx context.Context) ([]domain.ManufacturerCode, error) {
	rows, err := a.db.Query(ctx, filterCodesQuery)
	if err != nil {
		return nil, fmt.Errorf("postgres filter codes: query failed: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[filterCodeRow])
	if err != nil {
		return nil, fmt.Errorf("postgres filter codes: failed to scan rows: %w", err)
	}

	codes := groupFilterCodes(collected)
	log.Debug().Int("manufacturers", len(codes)).Int("rows", len(collected)).Msg("PostgresFilterCodes: loaded")
	return codes, nil
}

// groupFilterCodes сворачивает строки LEFT JOIN в записи по производителям,
// сохраняя порядок первого появления.
func groupFilterCodes(rows []filterCodeRow) []domain.ManufacturerCode {
	var out []domain.ManufacturerCode
	index := make(map[string]int)
	for _, r := range rows {
		i, ok := index[r.Manufacturer]
		if !ok {
			i = len(out)
			index[r.Manufacturer] = i
			out = append(out, domain.ManufacturerCode{
				Name:   r.Manufacturer,
				Code:   r.ManufacturerCode,
				Models: map[string]int{},
			})
		}
		if r.Model != nil && r.ModelCode != nil {
			out[i].Models[*r.Model] = *r.ModelCode
		}
	}
	return out
}
