package sautofetcher

import (
	"errors"
	"strings"
	"testing"

	"sauto-parser/internal/core/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRef = domain.AdvertRef{Manufacturer: "Škoda", Model: "Fabia", ID: 1001}

var testVocab = domain.MustEquipmentVocabulary([]string{"ABS", "Klimatizace", "El. okna"})

type page struct {
	metaPrice *string
	price     *string
	year      *string
	rows      [][2]string
	equipment []string
	noEquip   bool
}

func strp(s string) *string { return &s }

func fullPage() page {
	return page{
		price: strp("123 456 Kč"),
		year:  strp("Rok výroby: 2016"),
		rows: [][2]string{
			{"Tachometr:", "75 000 km"},
			{"Palivo:", "Benzin"},
			{"Převodovka:", "Manuální"},
			{"Objem:", "1 197 ccm"},
			{"Výkon:", "63 kW (86 k)"},
			{"První majitel:", "ano"},
			{"Servisní knížka:", "ne"},
			{"Země původu:", "Česká republika"},
			{"STK:", "do 5/2026"},
			{"Airbagy:", "6"},
			{"Karoserie:", "Hatchback"},
			{"Stav:", "Ojeté"},
			{"Barva:", "Bílá"},
			{"Počet míst:", "5"},
			{"Počet dveří:", "5"},
		},
		equipment: []string{"ABS", "El. okna"},
	}
}

func (p page) html() string {
	var b strings.Builder
	b.WriteString("<html>")
	if p.metaPrice != nil {
		b.WriteString(`<head><meta itemprop="price" content="` + *p.metaPrice + `"></head>`)
	}
	b.WriteString("<body>")
	if p.price != nil {
		b.WriteString(`<strong itemprop="price">` + *p.price + `</strong>`)
	}
	b.WriteString("<table>")
	if p.year != nil {
		b.WriteString(`<tr><td data-sticky-header-value-src="year">` + *p.year + `</td></tr>`)
	}
	for _, r := range p.rows {
		b.WriteString("<tr><th>" + r[0] + "</th><td>" + r[1] + "</td></tr>")
	}
	b.WriteString("</table>")
	if !p.noEquip {
		b.WriteString(`<ul id="equipList">`)
		for _, e := range p.equipment {
			b.WriteString("<li>" + e + "</li>")
		}
		b.WriteString("</ul>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

func (p page) doc(t *testing.T) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.html()))
	require.NoError(t, err)
	return doc
}

func extract(t *testing.T, p page, policy domain.EquipmentPolicy) (domain.Record, error) {
	t.Helper()
	return NewDetailExtractor(testVocab, policy).Extract(p.doc(t), testRef)
}

func mustGet(t *testing.T, r domain.Record, name string) domain.Value {
	t.Helper()
	v, ok := r.Get(name)
	require.True(t, ok, "field %s missing", name)
	return v
}

func TestExtract_FullPage(t *testing.T) {
	rec, err := extract(t, fullPage(), domain.EquipmentDiscard)
	require.NoError(t, err)

	assert.Equal(t, domain.Columns(testVocab), rec.Names())

	assert.Equal(t, int64(1001), mustGet(t, rec, domain.FieldID).Int())
	assert.Equal(t, "Škoda", mustGet(t, rec, domain.FieldManufacturer).Str())
	assert.Equal(t, "Fabia", mustGet(t, rec, domain.FieldModel).Str())
	assert.Equal(t, int64(123456), mustGet(t, rec, domain.FieldPrice).Int())
	assert.Equal(t, int64(2016), mustGet(t, rec, domain.FieldYear).Int())
	assert.Equal(t, int64(75000), mustGet(t, rec, domain.FieldOdometer).Int())
	assert.Equal(t, int64(1197), mustGet(t, rec, domain.FieldCCM).Int())
	assert.Equal(t, "Benzin", mustGet(t, rec, domain.FieldFuelType).Str())
	assert.Equal(t, "Manuální", mustGet(t, rec, domain.FieldTransmission).Str())
	assert.Equal(t, "63 kW (86 k)", mustGet(t, rec, domain.FieldHP).Str())
	assert.True(t, mustGet(t, rec, domain.FieldOneOwner).Bool())
	assert.False(t, mustGet(t, rec, domain.FieldServiceBook).Bool())
	assert.Equal(t, "Česká republika", mustGet(t, rec, domain.FieldOriginCountry).Str())
	assert.Equal(t, "do 5/2026", mustGet(t, rec, domain.FieldSTK).Str())

	airbags := mustGet(t, rec, domain.FieldAirbags)
	assert.Equal(t, domain.KindString, airbags.Kind())
	assert.Equal(t, "6", airbags.Str())
	assert.Equal(t, "5", mustGet(t, rec, domain.FieldDoors).Str())

	assert.True(t, mustGet(t, rec, "equipment_abs").Bool())
	assert.False(t, mustGet(t, rec, "equipment_klimatizace").Bool())
	assert.True(t, mustGet(t, rec, "equipment_el_okna").Bool())
}

func TestExtract_MissingPrice(t *testing.T) {
	p := fullPage()
	p.price = nil

	_, err := extract(t, p, domain.EquipmentDiscard)
	var missing *domain.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, domain.FieldPrice, missing.Field)
	assert.True(t, domain.IsSkippable(err))
}

func TestExtract_PriceIgnoresSchemaMeta(t *testing.T) {
	p := fullPage()
	p.metaPrice = strp("123456")

	rec, err := extract(t, p, domain.EquipmentDiscard)
	require.NoError(t, err)
	assert.Equal(t, int64(123456), mustGet(t, rec, domain.FieldPrice).Int())

	p.price = nil
	_, err = extract(t, p, domain.EquipmentDiscard)
	var missing *domain.MissingFieldError
	require.ErrorAs(t, err, &missing, "meta alone is not a visible price")
	assert.Equal(t, domain.FieldPrice, missing.Field)
}

func TestExtract_MalformedPrice(t *testing.T) {
	p := fullPage()
	p.price = strp("Cena dohodou")

	_, err := extract(t, p, domain.EquipmentDiscard)
	var malformed *domain.MalformedValueError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, domain.FieldPrice, malformed.Field)
}

func TestExtract_Year(t *testing.T) {
	tests := []struct {
		name    string
		year    *string
		want    int64
		wantErr any
	}{
		{name: "label prefix", year: strp("Year: 2016"), want: 2016},
		{name: "surrounding whitespace", year: strp("\n  Rok výroby: 2019 \n"), want: 2019},
		{name: "bare year", year: strp("2021"), want: 2021},
		{name: "not a number", year: strp("neuvedeno"), wantErr: &domain.MalformedValueError{}},
		{name: "missing", year: nil, wantErr: &domain.MissingFieldError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fullPage()
			p.year = tt.year
			rec, err := extract(t, p, domain.EquipmentDiscard)
			switch target := tt.wantErr.(type) {
			case *domain.MalformedValueError:
				require.ErrorAs(t, err, &target)
				assert.Equal(t, domain.FieldYear, target.Field)
			case *domain.MissingFieldError:
				require.ErrorAs(t, err, &target)
				assert.Equal(t, domain.FieldYear, target.Field)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, mustGet(t, rec, domain.FieldYear).Int())
			}
		})
	}
}

func TestExtract_SoftMissDefaults(t *testing.T) {
	p := fullPage()
	p.rows = [][2]string{{"Tachometr:", "neuvedeno"}}

	rec, err := extract(t, p, domain.EquipmentDiscard)
	require.NoError(t, err)

	assert.Equal(t, int64(0), mustGet(t, rec, domain.FieldOdometer).Int(), "no digits")
	assert.Equal(t, int64(0), mustGet(t, rec, domain.FieldCCM).Int(), "absent label")
	assert.Equal(t, "", mustGet(t, rec, domain.FieldFuelType).Str())
	assert.False(t, mustGet(t, rec, domain.FieldOneOwner).Bool())
	assert.Equal(t, domain.Columns(testVocab), rec.Names(), "soft misses keep the full column set")
}

func TestExtract_FirstLabelWins(t *testing.T) {
	p := fullPage()
	p.rows = append([][2]string{{"Palivo:", "Diesel"}}, p.rows...)

	rec, err := extract(t, p, domain.EquipmentDiscard)
	require.NoError(t, err)
	assert.Equal(t, "Diesel", mustGet(t, rec, domain.FieldFuelType).Str())
}

func TestExtract_LabelMatchIsExact(t *testing.T) {
	p := fullPage()
	p.rows = [][2]string{{"Tachometr", "90 000 km"}, {" Palivo:", "Diesel"}}

	rec, err := extract(t, p, domain.EquipmentDiscard)
	require.NoError(t, err)
	assert.Equal(t, int64(0), mustGet(t, rec, domain.FieldOdometer).Int())
	assert.Equal(t, "", mustGet(t, rec, domain.FieldFuelType).Str())
}

func TestExtract_RowsWithoutTwoChildrenIgnored(t *testing.T) {
	html := `<html><body>
		<strong itemprop="price">99 000</strong>
		<table>
			<tr><td data-sticky-header-value-src="year">2015</td></tr>
			<tr><th>Palivo:</th><td>LPG</td><td>extra</td></tr>
			<tr><th>Barva:</th><td>Černá</td></tr>
		</table>
		<ul id="equipList"></ul>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	rec, err := NewDetailExtractor(testVocab, domain.EquipmentDiscard).Extract(doc, testRef)
	require.NoError(t, err)
	assert.Equal(t, "", mustGet(t, rec, domain.FieldFuelType).Str())
	assert.Equal(t, "Černá", mustGet(t, rec, domain.FieldColour).Str())
}

func TestExtract_EquipmentTextIsTrimmed(t *testing.T) {
	p := fullPage()
	p.equipment = []string{"  Klimatizace\n", "Unknown gadget"}

	rec, err := extract(t, p, domain.EquipmentDiscard)
	require.NoError(t, err)
	assert.False(t, mustGet(t, rec, "equipment_abs").Bool())
	assert.True(t, mustGet(t, rec, "equipment_klimatizace").Bool())
	assert.False(t, mustGet(t, rec, "equipment_el_okna").Bool())
}

func TestExtract_MissingEquipmentList(t *testing.T) {
	p := fullPage()
	p.noEquip = true

	t.Run("discard", func(t *testing.T) {
		_, err := extract(t, p, domain.EquipmentDiscard)
		assert.True(t, errors.Is(err, domain.ErrAdvertDiscarded))
		assert.True(t, domain.IsSkippable(err))
	})

	t.Run("empty", func(t *testing.T) {
		rec, err := extract(t, p, domain.EquipmentEmpty)
		require.NoError(t, err)
		for _, col := range testVocab.Columns() {
			assert.False(t, mustGet(t, rec, col).Bool(), col)
		}
	})
}

func TestExtract_EmptyEquipmentListIsNotMissing(t *testing.T) {
	p := fullPage()
	p.equipment = nil

	rec, err := extract(t, p, domain.EquipmentDiscard)
	require.NoError(t, err)
	assert.False(t, mustGet(t, rec, "equipment_abs").Bool())
}

func TestExtract_Idempotent(t *testing.T) {
	x := NewDetailExtractor(testVocab, domain.EquipmentDiscard)
	doc := fullPage().doc(t)

	first, err := x.Extract(doc, testRef)
	require.NoError(t, err)
	second, err := x.Extract(doc, testRef)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Fields(), second.Fields(), cmp.Comparer(func(a, b domain.Value) bool {
		return a.Kind() == b.Kind() && a.String() == b.String()
	})); diff != "" {
		t.Errorf("second extraction differs (-first +second):\n%s", diff)
	}
}

func TestNewDetailExtractor_Defaults(t *testing.T) {
	x := NewDetailExtractor(nil, "")
	rec, err := x.Extract(fullPage().doc(t), testRef)
	require.NoError(t, err)
	assert.Equal(t, domain.Columns(domain.DefaultEquipment), rec.Names())
	assert.True(t, mustGet(t, rec, "equipment_abs").Bool())
}
