package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/antzucaro/matchr"
)

// SearchFilter - ограничения поиска. Создается один раз на
// запуск из YAML-файла и дальше не меняется.
type SearchFilter struct {
	// Имена производителя и модели; коды берутся из FilterCodeTable.
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`

	Category      int   `yaml:"category"` // 1 - osobní (легковые)
	PriceMin      int   `yaml:"price_min"`
	PriceMax      int   `yaml:"price_max"`
	YearMin       int   `yaml:"year_min"`
	YearMax       int   `yaml:"year_max"`
	TachometerMax int   `yaml:"tachometer_max"`
	Conditions    []int `yaml:"conditions"`
	Fuel          int   `yaml:"fuel"`
	Gearbox       int   `yaml:"gearbox"`
	AirCondition  int   `yaml:"aircondition"`
	State         int   `yaml:"state"`

	ValidInspection bool `yaml:"stk"`
	NotCrashed      bool `yaml:"not_crashed"`
	FirstOwner      bool `yaml:"first_owner"`

	NoCache int `yaml:"nocache"`
}

// ResolvedFilter - фильтр, прошедший проверку по таблице кодов.
type ResolvedFilter struct {
	SearchFilter
	ManufacturerCode int
	ModelCode        int
}

// Validate находит коды производителя и модели в таблице. Неизвестное имя -
// UnknownFilterError еще до первого запроса.
func (f SearchFilter) Validate(codes *FilterCodeTable) (ResolvedFilter, error) {
	resolved := ResolvedFilter{SearchFilter: f}

	if f.PriceMin > 0 && f.PriceMax > 0 && f.PriceMin > f.PriceMax {
		return resolved, fmt.Errorf("search filter: price_min %d is greater than price_max %d", f.PriceMin, f.PriceMax)
	}
	if f.YearMin > 0 && f.YearMax > 0 && f.YearMin > f.YearMax {
		return resolved, fmt.Errorf("search filter: year_min %d is greater than year_max %d", f.YearMin, f.YearMax)
	}

	if f.Manufacturer == "" {
		if f.Model != "" {
			return resolved, fmt.Errorf("search filter: model %q given without manufacturer", f.Model)
		}
		return resolved, nil
	}

	manufacturer, err := codes.Manufacturer(f.Manufacturer)
	if err != nil {
		return resolved, err
	}
	resolved.ManufacturerCode = manufacturer.Code

	if f.Model != "" {
		code, err := codes.Model(f.Manufacturer, f.Model)
		if err != nil {
			return resolved, err
		}
		resolved.ModelCode = code
	}
	return resolved, nil
}

// Query кодирует фильтр в параметры поискового запроса. Нулевые значения не
// передаются, condition повторяется для каждого кода.
func (f ResolvedFilter) Query(page int) url.Values {
	q := url.Values{}
	q.Set("ajax", "2")
	q.Set("page", strconv.Itoa(page))

	setInt := func(key string, v int) {
		if v != 0 {
			q.Set(key, strconv.Itoa(v))
		}
	}
	setFlag := func(key string, v bool) {
		if v {
			q.Set(key, "1")
		}
	}

	setFlag("stk", f.ValidInspection)
	setFlag("notCrashed", f.NotCrashed)
	setFlag("first", f.FirstOwner)
	setInt("aircondition", f.AirCondition)
	setInt("gearbox", f.Gearbox)
	setInt("state", f.State)
	setInt("fuel", f.Fuel)
	setInt("tachometrMax", f.TachometerMax)
	setInt("yearMin", f.YearMin)
	setInt("yearMax", f.YearMax)
	setInt("priceMax", f.PriceMax)
	setInt("priceMin", f.PriceMin)
	for _, c := range f.Conditions {
		q.Add("condition", strconv.Itoa(c))
	}
	setInt("category", f.Category)
	setInt("manufacturer", f.ManufacturerCode)
	setInt("model", f.ModelCode)
	setInt("nocache", f.NoCache)
	return q
}

// ManufacturerCode - код производителя и коды его моделей.
type ManufacturerCode struct {
	Name   string         `yaml:"name"`
	Code   int            `yaml:"code"`
	Models map[string]int `yaml:"models"`
}

// FilterCodeTable - таблица кодов производителей/моделей поискового API.
// Имена сравниваются без учета регистра и диакритики.
type FilterCodeTable struct {
	manufacturers map[string]ManufacturerCode
	models        map[string]map[string]int
}

func NewFilterCodeTable(entries ...ManufacturerCode) *FilterCodeTable {
	t := &FilterCodeTable{
		manufacturers: make(map[string]ManufacturerCode),
		models:        make(map[string]map[string]int),
	}
	t.Merge(entries...)
	return t
}

// Merge добавляет записи. У уже известного производителя перезаписываются код
// и переданные модели, остальные модели сохраняются.
func (t *FilterCodeTable) Merge(entries ...ManufacturerCode) {
	for _, e := range entries {
		key := NormalizeKey(e.Name, '-')
		t.manufacturers[key] = ManufacturerCode{Name: e.Name, Code: e.Code}
		models, ok := t.models[key]
		if !ok {
			models = make(map[string]int, len(e.Models))
			t.models[key] = models
		}
		for name, code := range e.Models {
			models[NormalizeKey(name, '-')] = code
		}
	}
}

func (t *FilterCodeTable) Len() int { return len(t.manufacturers) }

func (t *FilterCodeTable) Manufacturer(name string) (ManufacturerCode, error) {
	m, ok := t.manufacturers[NormalizeKey(name, '-')]
	if !ok {
		suggestion := closestName(name, t.manufacturerKeys())
		if suggestion != "" {
			suggestion = t.manufacturers[suggestion].Name
		}
		return ManufacturerCode{}, &UnknownFilterError{
			Kind:       "manufacturer",
			Name:       name,
			Suggestion: suggestion,
		}
	}
	return m, nil
}

func (t *FilterCodeTable) Model(manufacturer, model string) (int, error) {
	if _, err := t.Manufacturer(manufacturer); err != nil {
		return 0, err
	}
	models := t.models[NormalizeKey(manufacturer, '-')]
	code, ok := models[NormalizeKey(model, '-')]
	if !ok {
		keys := make([]string, 0, len(models))
		for k := range models {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return 0, &UnknownFilterError{
			Kind:       "model",
			Name:       model,
			Suggestion: closestName(model, keys),
		}
	}
	return code, nil
}

func (t *FilterCodeTable) manufacturerKeys() []string {
	keys := make([]string, 0, len(t.manufacturers))
	for k := range t.manufacturers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// порог похожести, ниже которого подсказку не показываем
const suggestionThreshold = 0.8

func closestName(name string, candidates []string) string {
	needle := NormalizeKey(name, '-')
	best, bestScore := "", 0.0
	for _, c := range candidates {
		score := matchr.JaroWinkler(needle, c, false)
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore < suggestionThreshold {
		return ""
	}
	return best
}

// PagingMode определяет, как перечислять страницы результатов поиска.
type PagingMode string

const (
	// PagingAuto: список страниц из paging.pages, если он есть, иначе до пустой страницы.
	PagingAuto       PagingMode = "auto"
	PagingPageList   PagingMode = "pages"
	PagingUntilEmpty PagingMode = "until-empty"
)

func ParsePagingMode(s string) (PagingMode, error) {
	switch m := PagingMode(s); m {
	case PagingAuto, PagingPageList, PagingUntilEmpty:
		return m, nil
	case "":
		return PagingAuto, nil
	default:
		return "", fmt.Errorf("unknown paging mode %q", s)
	}
}

// EquipmentPolicy - что делать, если на странице нет списка оборудования.
type EquipmentPolicy string

const (
	// EquipmentDiscard: объявление отбрасывается целиком (поведение по умолчанию).
	EquipmentDiscard EquipmentPolicy = "discard"
	// EquipmentEmpty: все флаги оборудования false, запись сохраняется.
	EquipmentEmpty EquipmentPolicy = "empty"
)

func ParseEquipmentPolicy(s string) (EquipmentPolicy, error) {
	switch p := EquipmentPolicy(s); p {
	case EquipmentDiscard, EquipmentEmpty:
		return p, nil
	case "":
		return EquipmentDiscard, nil
	default:
		return "", fmt.Errorf("unknown missing-equipment policy %q", s)
	}
}
