package domain

import (
	"fmt"
	"strings"
)

// Category is the closed set of record families that can be searched.
type Category int

const (
	CategoryProduct Category = iota + 1
	CategoryCustomer
)

// Categories lists every valid category in a stable order.
func Categories() []Category {
	return []Category{CategoryProduct, CategoryCustomer}
}

func ParseCategory(raw string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "product", "products":
		return CategoryProduct, nil
	case "customer", "customers":
		return CategoryCustomer, nil
	default:
		return 0, WrapError(ErrInvalidInput, "parse category", fmt.Errorf("unknown category %q", raw))
	}
}

func (c Category) String() string {
	switch c {
	case CategoryProduct:
		return "product"
	case CategoryCustomer:
		return "customer"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Collection is the plural storage name used for vector collections and routes.
func (c Category) Collection() string {
	switch c {
	case CategoryProduct:
		return "products"
	case CategoryCustomer:
		return "customers"
	default:
		return ""
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryProduct, CategoryCustomer:
		return true
	default:
		return false
	}
}
