package report

import (
	"fmt"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/MrJamesThe3rd/steppin/internal/ledger"
)

// TimeLayout is the time-of-day column format. It does not depend on locale.
const TimeLayout = "15:04:05"

type csvRow struct {
	Time            string `csv:"Time"`
	Product         string `csv:"Product"`
	Size            string `csv:"Size"`
	Quantity        int    `csv:"Quantity"`
	UnitPrice       string `csv:"Unit Price"`
	DiscountPercent string `csv:"Discount %"`
	Total           string `csv:"Total"`
	PaymentMethod   string `csv:"Payment Method"`
	Customer        string `csv:"Customer"`
}

// ToCSV renders sales one row each, times shown in loc. No sales yields the
// header row alone.
func ToCSV(sales []*ledger.Sale, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.Local
	}

	rows := make([]*csvRow, 0, len(sales))

	for _, s := range sales {
		rows = append(rows, &csvRow{
			Time:            s.Timestamp.In(loc).Format(TimeLayout),
			Product:         s.ProductName,
			Size:            s.Size,
			Quantity:        s.Quantity,
			UnitPrice:       s.UnitPrice.StringFixed(2),
			DiscountPercent: s.DiscountPercent.String(),
			Total:           s.Total.StringFixed(2),
			PaymentMethod:   string(s.PaymentMethod),
			Customer:        string(s.CustomerType),
		})
	}

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return "", fmt.Errorf("rendering sales csv: %w", err)
	}

	return out, nil
}
