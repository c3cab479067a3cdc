package domain

import "fmt"

// Cart — упорядоченный список позиций, уникальных по ID.
// Порядок добавления сохраняется.
type Cart []Product

// Clone возвращает независимую копию корзины.
func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// IndexOf возвращает индекс позиции или -1.
func (c Cart) IndexOf(productID int) int {
	for i, p := range c {
		if p.ID == productID {
			return i
		}
	}
	return -1
}

// Find возвращает позицию по ID.
func (c Cart) Find(productID int) (Product, bool) {
	idx := c.IndexOf(productID)
	if idx < 0 {
		return Product{}, false
	}
	return c[idx], true
}

// WithAmount возвращает копию корзины, где у позиции productID выставлено amount.
func (c Cart) WithAmount(productID, amount int) (Cart, error) {
	idx := c.IndexOf(productID)
	if idx < 0 {
		return nil, ErrProductNotFound
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	out := c.Clone()
	out[idx].Amount = amount
	return out, nil
}

// Append добавляет новую позицию в конец корзины.
func (c Cart) Append(p Product) (Cart, error) {
	if c.IndexOf(p.ID) >= 0 {
		return nil, ErrDuplicateProduct
	}
	if p.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	out := make(Cart, 0, len(c)+1)
	out = append(out, c...)
	return append(out, p), nil
}

// Without удаляет позицию, сохраняя порядок остальных.
func (c Cart) Without(productID int) (Cart, error) {
	idx := c.IndexOf(productID)
	if idx < 0 {
		return nil, ErrProductNotFound
	}
	out := make(Cart, 0, len(c)-1)
	out = append(out, c[:idx]...)
	return append(out, c[idx+1:]...), nil
}

// TotalUnits — суммарное количество единиц во всех позициях.
func (c Cart) TotalUnits() int {
	total := 0
	for _, p := range c {
		total += p.Amount
	}
	return total
}

// Validate проверяет инварианты корзины и возвращает список замечаний.
func (c Cart) Validate() []error {
	var errs []error
	seen := make(map[int]struct{}, len(c))
	for i, p := range c {
		if p.Amount <= 0 {
			errs = append(errs, fmt.Errorf("item[%d] id=%d: %w", i, p.ID, ErrInvalidAmount))
		}
		if _, dup := seen[p.ID]; dup {
			errs = append(errs, fmt.Errorf("item[%d] id=%d: %w", i, p.ID, ErrDuplicateProduct))
		}
		seen[p.ID] = struct{}{}
	}
	return errs
}
