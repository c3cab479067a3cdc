package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Product — позиция корзины: снимок товара из каталога плюс количество в корзине.
//
// Title, Price и Image — типизированный вид для отображения. Остальные поля карточки
// каталога корзине непрозрачны: они лежат в Attributes как есть и без изменений
// возвращаются в JSON снимка.
type Product struct {
	ID    int
	Title string
	Price decimal.Decimal
	Image string
	// Amount — количество единиц товара в корзине, всегда >= 1.
	Amount int
	// Attributes — прочие поля карточки в исходном JSON.
	Attributes map[string]json.RawMessage
}

// Stock — остаток товара на складе на момент запроса. Никогда не сохраняется.
type Stock struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

// Covers сообщает, хватает ли остатка на amount единиц.
func (s Stock) Covers(amount int) bool {
	return s.Amount-amount >= 0
}

const (
	fieldID     = "id"
	fieldTitle  = "title"
	fieldPrice  = "price"
	fieldImage  = "image"
	fieldAmount = "amount"
)

// UnmarshalJSON разбирает карточку. Значение title, price или image, не подходящее
// под типизированное поле, сохраняется в Attributes без изменений.
func (p *Product) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("product must be a JSON object")
	}

	out := Product{}
	if raw, ok := fields[fieldID]; ok {
		if err := json.Unmarshal(raw, &out.ID); err != nil {
			return fmt.Errorf("product id: %w", err)
		}
		delete(fields, fieldID)
	}
	if raw, ok := fields[fieldAmount]; ok {
		if err := json.Unmarshal(raw, &out.Amount); err != nil {
			return fmt.Errorf("product amount: %w", err)
		}
		delete(fields, fieldAmount)
	}
	out.Title = takeString(fields, fieldTitle)
	out.Image = takeString(fields, fieldImage)
	if raw, ok := fields[fieldPrice]; ok {
		var price decimal.Decimal
		if err := price.UnmarshalJSON(raw); err == nil {
			out.Price = price
			// Исходная запись (строка, 179.90, 1e2) сохраняется, если число пишется иначе.
			if string(bytes.TrimSpace(raw)) == price.String() {
				delete(fields, fieldPrice)
			}
		}
	}
	if len(fields) > 0 {
		out.Attributes = fields
	}

	*p = out
	return nil
}

// MarshalJSON пишет id, поля отображения, непрозрачные атрибуты и amount.
// Цена пишется JSON-числом.
func (p Product) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(key string, value []byte) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		name, _ := json.Marshal(key)
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	typed := func(key string, value any) error {
		if raw, ok := p.Attributes[key]; ok {
			write(key, raw)
			return nil
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("product %s: %w", key, err)
		}
		write(key, encoded)
		return nil
	}

	write(fieldID, []byte(fmt.Sprint(p.ID)))
	if err := typed(fieldTitle, p.Title); err != nil {
		return nil, err
	}
	if raw, ok := p.Attributes[fieldPrice]; ok {
		write(fieldPrice, raw)
	} else {
		write(fieldPrice, []byte(p.Price.String()))
	}
	if err := typed(fieldImage, p.Image); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(p.Attributes))
	for key := range p.Attributes {
		switch key {
		case fieldID, fieldAmount, fieldTitle, fieldPrice, fieldImage:
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		raw := p.Attributes[key]
		if !json.Valid(raw) {
			return nil, fmt.Errorf("product attribute %s: invalid JSON", key)
		}
		write(key, raw)
	}

	write(fieldAmount, []byte(fmt.Sprint(p.Amount)))
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// takeString разбирает строковое поле. Запись остаётся в fields, если это не строка
// или повторное кодирование даст другие байты.
func takeString(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	if encoded, err := json.Marshal(value); err == nil && bytes.Equal(encoded, bytes.TrimSpace(raw)) {
		delete(fields, key)
	}
	return value
}
