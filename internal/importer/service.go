package importer

import (
	"context"
	"io"

	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	"github.com/MrJamesThe3rd/steppin/internal/logx"
)

type Catalog interface {
	Sizes() catalog.SizeRange
	CreateBatch(ctx context.Context, params []catalog.CreateParams) ([]*catalog.Product, error)
}

type Service struct {
	catalog Catalog
	parser  *Parser
}

func NewService(c Catalog) *Service {
	return &Service{catalog: c, parser: NewParser(c.Sizes())}
}

// Import parses a stock sheet and creates every product in it. A bad row
// rejects the whole sheet before anything is created.
func (s *Service) Import(ctx context.Context, r io.Reader) ([]*catalog.Product, error) {
	params, err := s.parser.Parse(r)
	if err != nil {
		return nil, err
	}

	products, err := s.catalog.CreateBatch(ctx, params)
	if err != nil {
		return nil, err
	}

	logx.Info().Int("products", len(products)).Msg("stock sheet imported")

	return products, nil
}
