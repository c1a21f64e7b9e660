// Package catalog содержит каталог продуктов (пакетов кредитов). Каталог инжектируется
// в сервисы, поэтому в тестах его можно подменить без обращения к базе или файлам.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Credits int64           `json:"credits"`
}

type Catalog struct {
	products map[string]Product
}

func New(products []Product) *Catalog {
	m := make(map[string]Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &Catalog{products: m}
}

// Default каталог по умолчанию. Цены в минорных единицах валюты.
func Default() *Catalog {
	return New([]Product{
		{ID: "starter", Name: "Starter (1 plan)", Price: decimal.NewFromInt(19000), Credits: 1},
		{ID: "basic", Name: "Basic (3 plans)", Price: decimal.NewFromInt(50000), Credits: 3},
		{ID: "pro", Name: "Pro (10 plans)", Price: decimal.NewFromInt(150000), Credits: 10},
	})
}

// NewFromFile читает каталог из JSON файла вида [{"id": ..., "name": ..., "price": ..., "credits": ...}].
func NewFromFile(path string) (*Catalog, error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("reading catalog file: %s", readErr.Error())
	}

	var products []Product
	if jsonErr := json.Unmarshal(data, &products); jsonErr != nil {
		return nil, fmt.Errorf("parsing catalog file: %s", jsonErr.Error())
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog file `%s` contains no products", path)
	}
	return New(products), nil
}

// Find возвращает продукт по id. Второе значение false, если продукт не найден.
func (c *Catalog) Find(productID string) (Product, bool) {
	p, ok := c.products[productID]
	return p, ok
}

// List возвращает все продукты каталога.
func (c *Catalog) List() []Product {
	products := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		products = append(products, p)
	}
	return products
}
