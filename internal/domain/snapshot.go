package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CartStorageKey — имя единственного слота, в котором хранится снимок корзины.
const CartStorageKey = "@RocketShoes:cart"

// EncodeSnapshot сериализует корзину в JSON-массив позиций.
func EncodeSnapshot(c Cart) ([]byte, error) {
	if c == nil {
		c = Cart{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot разбирает снимок и проверяет инварианты корзины.
func DecodeSnapshot(data []byte) (Cart, error) {
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotInvalid, err)
	}
	if errs := c.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotInvalid, errors.Join(errs...))
	}
	if c == nil {
		c = Cart{}
	}
	return c, nil
}
