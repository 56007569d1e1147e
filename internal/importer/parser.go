package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	enc "github.com/MrJamesThe3rd/steppin/internal/encoding"
	"github.com/MrJamesThe3rd/steppin/internal/errx"
	"github.com/MrJamesThe3rd/steppin/internal/logx"
)

const (
	colName     = "name"
	colPrice    = "price"
	colCategory = "category"
)

// Parser reads a stock sheet: a header row naming Name, Price, an optional
// Category, and one column per size label, then one product per row.
type Parser struct {
	sizes catalog.SizeRange
}

func NewParser(sizes catalog.SizeRange) *Parser {
	return &Parser{sizes: sizes}
}

// colIndex maps a recognised column to its position in the row.
type colIndex struct {
	name     int
	price    int
	category int
	sizes    map[string]int
}

func (p *Parser) Parse(r io.Reader) ([]catalog.CreateParams, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	logx.Debug().Str("charset", string(charset)).Msg("reading stock sheet")

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errx.InvalidInput("file", "sheet is empty")
	}

	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	// Sheets saved with a European locale use semicolons.
	if len(header) == 1 && strings.Contains(header[0], ";") {
		return nil, errx.InvalidInput("file", "sheet must be comma separated")
	}

	cols, err := p.detectColumns(header)
	if err != nil {
		return nil, err
	}

	var params []catalog.CreateParams

	for rowNum := 2; ; rowNum++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", rowNum, err)
		}

		if blank(row) {
			continue
		}

		param, err := p.parseRow(cols, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		params = append(params, param)
	}

	return params, nil
}

func (p *Parser) detectColumns(header []string) (colIndex, error) {
	cols := colIndex{name: -1, price: -1, category: -1, sizes: make(map[string]int)}

	for i, cell := range header {
		label := strings.TrimSpace(cell)

		switch strings.ToLower(label) {
		case colName:
			cols.name = i
			continue
		case colPrice:
			cols.price = i
			continue
		case colCategory:
			cols.category = i
			continue
		case "":
			continue
		}

		if _, ok := p.sizes.Index(label); ok {
			cols.sizes[label] = i
			continue
		}

		// A numeric header is a size we don't stock; anything else is a note column.
		if _, err := decimal.NewFromString(label); err == nil {
			return colIndex{}, errx.InvalidSize(label)
		}
	}

	if cols.name < 0 {
		return colIndex{}, errx.InvalidInput("file", "header has no Name column")
	}

	if cols.price < 0 {
		return colIndex{}, errx.InvalidInput("file", "header has no Price column")
	}

	return cols, nil
}

func (p *Parser) parseRow(cols colIndex, row []string) (catalog.CreateParams, error) {
	price, err := parsePrice(cellValue(row, cols.price))
	if err != nil {
		return catalog.CreateParams{}, err
	}

	param := catalog.CreateParams{
		Name:     cellValue(row, cols.name),
		Price:    price,
		Category: cellValue(row, cols.category),
		Sizes:    make(map[string]int, len(cols.sizes)),
	}

	for label, idx := range cols.sizes {
		s := cellValue(row, idx)
		if s == "" {
			continue
		}

		qty, err := strconv.Atoi(s)
		if err != nil {
			return catalog.CreateParams{}, errx.InvalidInput("sizes", fmt.Sprintf("quantity %q for size %s is not a whole number", s, label))
		}

		if qty < 0 {
			return catalog.CreateParams{}, errx.InvalidInput("sizes", fmt.Sprintf("quantity for size %s must not be negative", label))
		}

		param.Sizes[label] = qty
	}

	return param, nil
}

// parsePrice accepts plain decimals with optional thousands commas, e.g. "1,250.00".
func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, errx.InvalidInput("price", "is missing")
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Decimal{}, errx.InvalidInput("price", fmt.Sprintf("%q is not a number", s))
	}

	return d, nil
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
