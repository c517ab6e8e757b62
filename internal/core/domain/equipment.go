package domain

import (
	"fmt"
	"strings"
)

const equipmentPrefix = "equipment_"

// EquipmentItem - одна позиция словаря: отображаемое имя на сайте и ключ колонки.
type EquipmentItem struct {
	Display string
	Key     string
}

// Column - имя поля записи для этой позиции.
func (i EquipmentItem) Column() string {
	return equipmentPrefix + i.Key
}

// EquipmentVocabulary - фиксированный упорядоченный словарь оборудования.
// Общий для всех записей, поэтому у каждой записи одинаковый набор колонок.
type EquipmentVocabulary struct {
	items []EquipmentItem
}

// NewEquipmentVocabulary строит ключи из отображаемых имен. Пустые имена,
// повторы и имена, дающие одинаковый ключ, - ошибка.
func NewEquipmentVocabulary(displayNames []string) (*EquipmentVocabulary, error) {
	items := make([]EquipmentItem, 0, len(displayNames))
	seenDisplay := make(map[string]struct{}, len(displayNames))
	seenKey := make(map[string]string, len(displayNames))

	for _, name := range displayNames {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("equipment vocabulary: empty display name")
		}
		if _, dup := seenDisplay[name]; dup {
			return nil, fmt.Errorf("equipment vocabulary: duplicate display name %q", name)
		}
		key := NormalizeKey(name, '_')
		if key == "" {
			return nil, fmt.Errorf("equipment vocabulary: %q normalizes to an empty key", name)
		}
		if other, dup := seenKey[key]; dup {
			return nil, fmt.Errorf("equipment vocabulary: %q and %q share key %q", other, name, key)
		}
		seenDisplay[name] = struct{}{}
		seenKey[key] = name
		items = append(items, EquipmentItem{Display: name, Key: key})
	}
	return &EquipmentVocabulary{items: items}, nil
}

// MustEquipmentVocabulary паникует при невалидном словаре. Для статических таблиц.
func MustEquipmentVocabulary(displayNames []string) *EquipmentVocabulary {
	v, err := NewEquipmentVocabulary(displayNames)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *EquipmentVocabulary) Len() int { return len(v.items) }

func (v *EquipmentVocabulary) Items() []EquipmentItem {
	out := make([]EquipmentItem, len(v.items))
	copy(out, v.items)
	return out
}

func (v *EquipmentVocabulary) Columns() []string {
	cols := make([]string, len(v.items))
	for i, it := range v.items {
		cols[i] = it.Column()
	}
	return cols
}

// Flags возвращает по флагу на позицию словаря: true, если точный текст
// позиции есть среди present.
func (v *EquipmentVocabulary) Flags(present []string) []bool {
	set := make(map[string]struct{}, len(present))
	for _, p := range present {
		set[p] = struct{}{}
	}
	flags := make([]bool, len(v.items))
	for i, it := range v.items {
		_, flags[i] = set[it.Display]
	}
	return flags
}

// DefaultEquipment - словарь оборудования, который показывает sauto.cz в блоке "Výbava".
var DefaultEquipment = MustEquipmentVocabulary([]string{
	"ABS",
	"ESP",
	"ASR",
	"Airbag řidiče",
	"Airbag spolujezdce",
	"Boční airbagy",
	"Hlavové airbagy",
	"Klimatizace",
	"Automatická klimatizace",
	"Tempomat",
	"Adaptivní tempomat",
	"Vyhřívaná sedadla",
	"Parkovací senzory",
	"Parkovací kamera",
	"Centrální zamykání",
	"Dálkové centrální zamykání",
	"El. okna",
	"El. ovládaná zrcátka",
	"Vyhřívaná zrcátka",
	"Posilovač řízení",
	"Palubní počítač",
	"Multifunkční volant",
	"Nastavitelný volant",
	"Alu kola",
	"Isofix",
	"Navigační systém",
	"Bluetooth",
	"Autorádio",
	"Imobilizér",
	"Mlhovky",
	"LED světla",
	"Xenonové světlomety",
	"Dělená zadní sedadla",
	"Start/Stop systém",
	"Tažné zařízení",
	"Střešní okno",
	"Kožené čalounění",
	"Senzor stěračů",
	"Senzor světel",
})
