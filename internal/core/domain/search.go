package domain

// SearchPage - разобранный ответ поискового API для одной страницы.
type SearchPage struct {
	Number     int
	Adverts    []AdvertRef
	Pages      []int // индексы страниц из paging.pages, если API их вернул
	ResultSize int
}

// RunStats - итог одного запуска сбора.
type RunStats struct {
	Enumerated int
	Accepted   int
	Skipped    int
}
