package sautofetcher

import (
	"sauto-parser/internal/core/domain"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Разметка детальной страницы.
const (
	priceSelector     = `strong[itemprop="price"]`
	yearSelector      = `td[data-sticky-header-value-src="year"]`
	equipmentSelector = `#equipList`
)

// Подписи строк таблицы параметров на sauto.cz.
const (
	labelOdometer      = "Tachometr:"
	labelFuel          = "Palivo:"
	labelTransmission  = "Převodovka:"
	labelCCM           = "Objem:"
	labelHP            = "Výkon:"
	labelOneOwner      = "První majitel:"
	labelServiceBook   = "Servisní knížka:"
	labelOriginCountry = "Země původu:"
	labelSTK           = "STK:"
	labelAirbags       = "Airbagy:"
	labelBodywork      = "Karoserie:"
	labelCondition     = "Stav:"
	labelColour        = "Barva:"
	labelSeats         = "Počet míst:"
	labelDoors         = "Počet dveří:"

	yesToken = "ano"
)

// DetailExtractor превращает дерево детальной страницы в плоскую запись.
// Состояния между вызовами нет: одна и та же страница дает одну и ту же запись.
type DetailExtractor struct {
	vocab  *domain.EquipmentVocabulary
	policy domain.EquipmentPolicy
}

func NewDetailExtractor(vocab *domain.EquipmentVocabulary, policy domain.EquipmentPolicy) *DetailExtractor {
	if vocab == nil {
		vocab = domain.DefaultEquipment
	}
	if policy == "" {
		policy = domain.EquipmentDiscard
	}
	return &DetailExtractor{vocab: vocab, policy: policy}
}

// Extract возвращает либо полную запись объявления, либо ошибку. Частично
// заполненная запись наружу не попадает.
func (x *DetailExtractor) Extract(doc *goquery.Document, ref domain.AdvertRef) (domain.Record, error) {
	price, err := extractPrice(doc.Selection)
	if err != nil {
		return domain.Record{}, err
	}
	year, err := extractYear(doc.Selection)
	if err != nil {
		return domain.Record{}, err
	}

	rows := buildLabelTable(doc.Selection)
	odometer, err := rows.lookupInt(labelOdometer, domain.FieldOdometer)
	if err != nil {
		return domain.Record{}, err
	}
	ccm, err := rows.lookupInt(labelCCM, domain.FieldCCM)
	if err != nil {
		return domain.Record{}, err
	}

	equipment, found := extractEquipment(doc.Selection)
	if !found && x.policy == domain.EquipmentDiscard {
		return domain.Record{}, domain.ErrAdvertDiscarded
	}

	b := domain.NewRecordBuilder(len(domain.BaseFields) + x.vocab.Len())
	b.SetInt(domain.FieldID, ref.ID).
		SetString(domain.FieldManufacturer, ref.Manufacturer).
		SetString(domain.FieldModel, ref.Model).
		SetInt(domain.FieldPrice, price).
		SetInt(domain.FieldYear, year).
		SetInt(domain.FieldOdometer, odometer).
		SetString(domain.FieldFuelType, rows.lookup(labelFuel)).
		SetString(domain.FieldTransmission, rows.lookup(labelTransmission)).
		SetInt(domain.FieldCCM, ccm).
		SetString(domain.FieldHP, rows.lookup(labelHP)).
		SetBool(domain.FieldOneOwner, rows.lookup(labelOneOwner) == yesToken).
		SetBool(domain.FieldServiceBook, rows.lookup(labelServiceBook) == yesToken).
		SetString(domain.FieldOriginCountry, rows.lookup(labelOriginCountry)).
		SetString(domain.FieldSTK, rows.lookup(labelSTK)).
		// Числовые на вид поля остаются строками, как их отдает сайт.
		SetString(domain.FieldAirbags, rows.lookup(labelAirbags)).
		SetString(domain.FieldBodywork, rows.lookup(labelBodywork)).
		SetString(domain.FieldCondition, rows.lookup(labelCondition)).
		SetString(domain.FieldColour, rows.lookup(labelColour)).
		SetString(domain.FieldSeats, rows.lookup(labelSeats)).
		SetString(domain.FieldDoors, rows.lookup(labelDoors))

	flags := x.vocab.Flags(equipment)
	for i, item := range x.vocab.Items() {
		b.SetBool(item.Column(), flags[i])
	}
	return b.Build(), nil
}

// extractPrice читает видимую цену. meta[itemprop=price] из разметки schema.org
// не подходит: текста у него нет.
func extractPrice(root *goquery.Selection) (int64, error) {
	el := root.Find(priceSelector).First()
	if el.Length() == 0 {
		return 0, &domain.MissingFieldError{Field: domain.FieldPrice}
	}
	raw := el.Text()
	digits := onlyDigits(raw)
	if digits == "" {
		return 0, &domain.MalformedValueError{Field: domain.FieldPrice, Raw: raw}
	}
	price, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &domain.MalformedValueError{Field: domain.FieldPrice, Raw: raw, Err: err}
	}
	return price, nil
}

// extractYear берет последние 4 символа ячейки года ("Rok výroby: 2016" -> 2016).
func extractYear(root *goquery.Selection) (int64, error) {
	el := root.Find(yearSelector).First()
	if el.Length() == 0 {
		return 0, &domain.MissingFieldError{Field: domain.FieldYear}
	}
	raw := el.Text()
	text := []rune(strings.TrimSpace(raw))
	if len(text) > 4 {
		text = text[len(text)-4:]
	}
	year, err := strconv.ParseInt(string(text), 10, 64)
	if err != nil {
		return 0, &domain.MalformedValueError{Field: domain.FieldYear, Raw: raw, Err: err}
	}
	return year, nil
}

// labelTable - подпись строки -> текст значения, собирается за один проход.
type labelTable map[string]string

// buildLabelTable обходит все строки таблиц один раз. Учитываются только строки
// ровно с двумя дочерними элементами; подпись - точный текст первого из них,
// при повторе подписи побеждает первая строка.
func buildLabelTable(root *goquery.Selection) labelTable {
	rows := make(labelTable)
	root.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Children()
		if cells.Length() != 2 {
			return
		}
		label := cells.Eq(0).Text()
		if _, seen := rows[label]; seen {
			return
		}
		rows[label] = cells.Eq(1).Text()
	})
	return rows
}

// lookup возвращает текст значения или "" (soft-miss), если подписи нет.
func (t labelTable) lookup(label string) string {
	return t[label]
}

// lookupInt оставляет только цифры. Нет подписи или нет цифр - 0.
func (t labelTable) lookupInt(label, field string) (int64, error) {
	raw := t.lookup(label)
	digits := onlyDigits(raw)
	if digits == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &domain.MalformedValueError{Field: field, Raw: raw, Err: err}
	}
	return v, nil
}

// extractEquipment возвращает тексты пунктов списка оборудования и признак
// того, что контейнер вообще есть на странице.
func extractEquipment(root *goquery.Selection) ([]string, bool) {
	container := root.Find(equipmentSelector).First()
	if container.Length() == 0 {
		return nil, false
	}
	var items []string
	container.Find("li").Each(func(_ int, li *goquery.Selection) {
		items = append(items, strings.TrimSpace(li.Text()))
	})
	return items, true
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
