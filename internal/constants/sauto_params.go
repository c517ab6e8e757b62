package constants

import "sauto-parser/internal/core/domain"

const (
	DefaultBaseURL = "https://www.sauto.cz"
	DefaultDomain  = "www.sauto.cz"
)

// Коды поискового API sauto.cz.
const (
	CategoryPassenger = 1 // osobní

	ManufacturerSkoda = 93
	ModelSkodaFabia   = 707

	FuelPetrol       = 1
	GearboxManual    = 1
	StateUsed        = 1
	AirConditionAuto = 2
)

const DefaultNoCacheKey = 658

// DefaultConditions - значения параметра condition, как их шлет сайт.
var DefaultConditions = []int{4, 2, 1}

// BuiltinFilterCodes - коды, известные без внешнего справочника.
func BuiltinFilterCodes() []domain.ManufacturerCode {
	return []domain.ManufacturerCode{
		{
			Name:   "škoda",
			Code:   ManufacturerSkoda,
			Models: map[string]int{"fabia": ModelSkodaFabia},
		},
	}
}

// DefaultSearchFilter - подержанная Škoda Fabia с пробегом до 75 000 км.
// Поля, не заданные в файле фильтра, берутся отсюда.
func DefaultSearchFilter() domain.SearchFilter {
	return domain.SearchFilter{
		Manufacturer:    "škoda",
		Model:           "fabia",
		Category:        CategoryPassenger,
		PriceMin:        100000,
		PriceMax:        500000,
		YearMin:         2015,
		TachometerMax:   75000,
		Conditions:      append([]int(nil), DefaultConditions...),
		Fuel:            FuelPetrol,
		Gearbox:         GearboxManual,
		AirCondition:    AirConditionAuto,
		State:           StateUsed,
		ValidInspection: true,
		NotCrashed:      true,
		FirstOwner:      true,
		NoCache:         DefaultNoCacheKey,
	}
}
