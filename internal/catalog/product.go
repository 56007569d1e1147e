package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned when a product is created without one.
const DefaultCategory = "General"

// Product is a catalog item with one stock cell per configured size.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Stock     []int           `json:"stock"` // indexed by SizeRange position
	DateAdded time.Time       `json:"date_added"`
}

// TotalStock sums the stock over every size.
func (p *Product) TotalStock() int {
	total := 0
	for _, q := range p.Stock {
		total += q
	}

	return total
}

// Clone returns a copy that shares no memory with p.
func (p *Product) Clone() *Product {
	c := *p
	c.Stock = append([]int(nil), p.Stock...)

	return &c
}

// SizeRange is the catalog-wide ordered list of size labels.
// Every product carries exactly one stock cell per label.
type SizeRange struct {
	labels []string
	index  map[string]int
}

// DefaultSizeLabels is the shoe size run used when none is configured.
var DefaultSizeLabels = []string{
	"6", "6.5", "7", "7.5", "8", "8.5", "9", "9.5", "10", "10.5", "11", "11.5", "12",
}

func NewSizeRange(labels []string) (SizeRange, error) {
	if len(labels) == 0 {
		return SizeRange{}, fmt.Errorf("size range is empty")
	}

	r := SizeRange{
		labels: make([]string, 0, len(labels)),
		index:  make(map[string]int, len(labels)),
	}

	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			return SizeRange{}, fmt.Errorf("size range contains an empty label")
		}

		if _, dup := r.index[l]; dup {
			return SizeRange{}, fmt.Errorf("size range contains %q twice", l)
		}

		r.index[l] = len(r.labels)
		r.labels = append(r.labels, l)
	}

	return r, nil
}

// MustSizeRange is NewSizeRange for static label lists.
func MustSizeRange(labels []string) SizeRange {
	r, err := NewSizeRange(labels)
	if err != nil {
		panic(err)
	}

	return r
}

func (r SizeRange) Len() int { return len(r.labels) }

// Labels returns a copy of the labels in range order.
func (r SizeRange) Labels() []string {
	return append([]string(nil), r.labels...)
}

// Label returns the label stored at slot i.
func (r SizeRange) Label(i int) string {
	return r.labels[i]
}

func (r SizeRange) Index(label string) (int, bool) {
	i, ok := r.index[strings.TrimSpace(label)]
	return i, ok
}

// Quantities renders a stock table as label -> quantity.
func (r SizeRange) Quantities(stock []int) map[string]int {
	out := make(map[string]int, len(r.labels))
	for i, l := range r.labels {
		if i < len(stock) {
			out[l] = stock[i]
			continue
		}

		out[l] = 0
	}

	return out
}
