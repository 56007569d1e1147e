package analytics

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
)

// DefaultLowStockThreshold flags products with fewer than five pairs left.
const DefaultLowStockThreshold = 5

type Options struct {
	// Products whose total stock is strictly below the threshold are low.
	LowStockThreshold int
}

func DefaultOptions() Options {
	return Options{LowStockThreshold: DefaultLowStockThreshold}
}

type LowStock struct {
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	TotalStock int       `json:"total_stock"`
}

type ProductQuantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type Report struct {
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	SalesCount         int             `json:"sales_count"`
	AverageSale        decimal.Decimal `json:"average_sale"`
	TotalStock         int             `json:"total_stock"`
	LowStockProducts   []LowStock      `json:"low_stock_products"`
	TopSellingProducts map[string]int  `json:"top_selling_products"`
	// TopSellers ranks TopSellingProducts by quantity, then name.
	TopSellers             []ProductQuantity                         `json:"top_sellers"`
	RevenueByPaymentMethod map[ledger.PaymentMethod]decimal.Decimal `json:"revenue_by_payment_method"`
	CountByCustomerType    map[ledger.CustomerType]int               `json:"count_by_customer_type"`
}

// Compute derives a report from one catalog snapshot and one ledger slice.
// It runs in a single pass over each input.
func Compute(products []*catalog.Product, sales []*ledger.Sale, opts Options) *Report {
	r := &Report{
		TotalRevenue:           decimal.Zero,
		AverageSale:            decimal.Zero,
		LowStockProducts:       []LowStock{},
		TopSellingProducts:     make(map[string]int),
		TopSellers:             []ProductQuantity{},
		RevenueByPaymentMethod: make(map[ledger.PaymentMethod]decimal.Decimal, len(ledger.PaymentMethods)),
		CountByCustomerType:    make(map[ledger.CustomerType]int, len(ledger.CustomerTypes)),
	}

	for _, m := range ledger.PaymentMethods {
		r.RevenueByPaymentMethod[m] = decimal.Zero
	}

	for _, c := range ledger.CustomerTypes {
		r.CountByCustomerType[c] = 0
	}

	for _, p := range products {
		total := p.TotalStock()
		r.TotalStock += total

		if total < opts.LowStockThreshold {
			r.LowStockProducts = append(r.LowStockProducts, LowStock{ProductID: p.ID, Name: p.Name, TotalStock: total})
		}
	}

	for _, s := range sales {
		r.TotalRevenue = r.TotalRevenue.Add(s.Total)
		r.SalesCount++
		r.TopSellingProducts[s.ProductName] += s.Quantity
		r.RevenueByPaymentMethod[s.PaymentMethod] = r.RevenueByPaymentMethod[s.PaymentMethod].Add(s.Total)
		r.CountByCustomerType[s.CustomerType]++
	}

	if r.SalesCount > 0 {
		r.AverageSale = r.TotalRevenue.Div(decimal.NewFromInt(int64(r.SalesCount))).Round(2)
	}

	for name, qty := range r.TopSellingProducts {
		r.TopSellers = append(r.TopSellers, ProductQuantity{Name: name, Quantity: qty})
	}

	sort.Slice(r.TopSellers, func(i, j int) bool {
		a, b := r.TopSellers[i], r.TopSellers[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}

		return a.Name < b.Name
	})

	return r
}
