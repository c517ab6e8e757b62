package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// AdvertRef идентифицирует объявление так, как его возвращает поисковый API.
type AdvertRef struct {
	Manufacturer string
	Model        string
	ID           int64
}

// Имена полей записи в объявленном порядке колонок.
const (
	FieldID            = "id"
	FieldManufacturer  = "manufacturer"
	FieldModel         = "model"
	FieldPrice         = "price"
	FieldYear          = "year"
	FieldOdometer      = "odometer"
	FieldFuelType      = "fuel_type"
	FieldTransmission  = "transmission"
	FieldCCM           = "ccm"
	FieldHP            = "hp"
	FieldOneOwner      = "one_owner"
	FieldServiceBook   = "service_book"
	FieldOriginCountry = "origin_country"
	FieldSTK           = "stk"
	FieldAirbags       = "airbags"
	FieldBodywork      = "bodywork"
	FieldCondition     = "condition"
	FieldColour        = "colour"
	FieldSeats         = "seats"
	FieldDoors         = "doors"
)

// BaseFields - поля, которые есть у каждой записи до списка оборудования.
var BaseFields = []string{
	FieldID, FieldManufacturer, FieldModel, FieldPrice, FieldYear, FieldOdometer,
	FieldFuelType, FieldTransmission, FieldCCM, FieldHP, FieldOneOwner, FieldServiceBook,
	FieldOriginCountry, FieldSTK, FieldAirbags, FieldBodywork, FieldCondition,
	FieldColour, FieldSeats, FieldDoors,
}

// Columns возвращает полный набор колонок для записей с данным словарем оборудования.
func Columns(vocab *EquipmentVocabulary) []string {
	cols := make([]string, 0, len(BaseFields)+vocab.Len())
	cols = append(cols, BaseFields...)
	return append(cols, vocab.Columns()...)
}

// ValueKind - тип скалярного значения поля.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindBool
)

// Value - скаляр записи: целое, булево или строка.
type Value struct {
	kind ValueKind
	i    int64
	b    bool
	s    string
}

func IntValue(i int64) Value     { return Value{kind: KindInt, i: i} }
func BoolValue(b bool) Value     { return Value{kind: KindBool, b: b} }
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) Int() int64      { return v.i }
func (v Value) Bool() bool      { return v.b }
func (v Value) Str() string     { return v.s }

// String форматирует значение для табличного вывода.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.s
	}
}

// Interface возвращает значение как int64, bool или string.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindBool:
		return v.b
	default:
		return v.s
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return fmt.Errorf("value %s is not an integer: %w", t, err)
		}
		*v = IntValue(i)
	case bool:
		*v = BoolValue(t)
	case string:
		*v = StringValue(t)
	default:
		return fmt.Errorf("unsupported JSON value %s", string(data))
	}
	return nil
}

// Field - одна пара "имя -> значение".
type Field struct {
	Name  string
	Value Value
}

// Record - AdvertisementRecord: упорядоченный набор полей одного объявления.
// После сборки запись не меняется.
type Record struct {
	fields []Field
	index  map[string]int
}

// RecordBuilder собирает Record в порядке вызовов Set.
type RecordBuilder struct {
	fields []Field
	index  map[string]int
}

func NewRecordBuilder(capacity int) *RecordBuilder {
	return &RecordBuilder{
		fields: make([]Field, 0, capacity),
		index:  make(map[string]int, capacity),
	}
}

// Set добавляет поле; повторное имя перезаписывает значение, не меняя позицию.
func (b *RecordBuilder) Set(name string, v Value) *RecordBuilder {
	if i, ok := b.index[name]; ok {
		b.fields[i].Value = v
		return b
	}
	b.index[name] = len(b.fields)
	b.fields = append(b.fields, Field{Name: name, Value: v})
	return b
}

func (b *RecordBuilder) SetInt(name string, i int64) *RecordBuilder { return b.Set(name, IntValue(i)) }
func (b *RecordBuilder) SetBool(name string, v bool) *RecordBuilder { return b.Set(name, BoolValue(v)) }
func (b *RecordBuilder) SetString(name, s string) *RecordBuilder    { return b.Set(name, StringValue(s)) }

// Build возвращает запись; после этого builder повторно не используется.
func (b *RecordBuilder) Build() Record {
	r := Record{fields: b.fields, index: b.index}
	b.fields, b.index = nil, nil
	return r
}

func (r Record) Len() int { return len(r.fields) }

func (r Record) Get(name string) (Value, bool) {
	i, ok := r.index[name]
	if !ok {
		return Value{}, false
	}
	return r.fields[i].Value, true
}

// Fields возвращает копию полей в объявленном порядке.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

func (r Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// MarshalJSON пишет объект с полями в объявленном порядке.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON восстанавливает запись, сохраняя порядок ключей из документа.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}

	b := NewRecordBuilder(0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("record: unexpected key token %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("record: field %s: %w", key, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("record: field %s: %w", key, err)
		}
		b.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = b.Build()
	return nil
}
