package services

import (
	"fmt"
	"os"

	"go-storefront/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CatalogFile is the layout of a seed file:
//
//	products:
//	  - name: Steel Bottle
//	    price: 499
//	    category: Kitchen
//	    image: https://cdn.example.com/bottle.jpg
//	    featured: true
type CatalogFile struct {
	Products []SeedProduct `yaml:"products"`
}

type SeedProduct struct {
	Name        string      `yaml:"name"`
	Price       yamlDecimal `yaml:"price"`
	Category    string      `yaml:"category"`
	Image       string      `yaml:"image"`
	Description string      `yaml:"description"`
	Featured    bool        `yaml:"featured"`
}

type yamlDecimal struct {
	decimal.Decimal
}

func (d *yamlDecimal) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid price %q", value.Line, value.Value)
	}
	d.Decimal = parsed
	return nil
}

// ParseCatalog decodes a seed document into product requests.
func ParseCatalog(data []byte) ([]models.ProductRequest, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	reqs := make([]models.ProductRequest, 0, len(file.Products))
	for _, p := range file.Products {
		reqs = append(reqs, models.ProductRequest{
			Name:        p.Name,
			Price:       p.Price.Decimal,
			Category:    p.Category,
			Image:       p.Image,
			Description: p.Description,
			Featured:    p.Featured,
		})
	}
	return reqs, nil
}

func LoadCatalogFile(path string) ([]models.ProductRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}
