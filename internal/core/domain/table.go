package domain

import (
	"fmt"
	"slices"
)

// Table - итоговая таблица: строки - объявления, колонки - объявленный порядок полей.
type Table struct {
	columns []string
	rows    []Record
}

// NewTable создает таблицу с фиксированными колонками. Без колонок их задает
// первая добавленная запись.
func NewTable(columns ...string) *Table {
	return &Table{columns: slices.Clone(columns)}
}

// Append добавляет запись, если ее набор полей совпадает с колонками таблицы.
func (t *Table) Append(r Record) error {
	names := r.Names()
	if t.columns == nil {
		t.columns = names
	} else if !slices.Equal(t.columns, names) {
		return fmt.Errorf("table: record has %d fields that do not match the %d table columns", len(names), len(t.columns))
	}
	t.rows = append(t.rows, r)
	return nil
}

func (t *Table) Columns() []string { return slices.Clone(t.columns) }
func (t *Table) Rows() []Record    { return slices.Clone(t.rows) }
func (t *Table) Len() int          { return len(t.rows) }
