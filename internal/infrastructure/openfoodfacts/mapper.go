package openfoodfacts

import (
	"strings"

	"github.com/cartpilot/backend/internal/domain"
)

// SourceName labels products fetched from the API
const SourceName = "OpenFoodFacts"

// MapToScannedProduct converts an Open Food Facts product to our domain model
func MapToScannedProduct(barcode string, p *domain.OFFProduct) *domain.ScannedProduct {
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		name = strings.TrimSpace(p.GenericName)
	}

	return &domain.ScannedProduct{
		Barcode:    barcode,
		Name:       name,
		Brand:      firstListItem(p.Brands),
		Categories: splitList(p.Categories),
		ImageURL:   p.ImageFrontURL,
		Nutrients:  extractNutrients(p.Nutriments),
		Source:     SourceName,
	}
}

func extractNutrients(n domain.OFFNutriments) domain.Nutrients {
	return domain.Nutrients{
		Calories:      n.EnergyKcal100g,
		Protein:       n.Proteins100g,
		Carbohydrates: n.Carbohydrates100g,
		TotalFat:      n.Fat100g,
	}
}

// splitList splits a comma separated Open Food Facts list, dropping blanks and
// language-tagged entries such as "en:dairies"
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" || strings.Contains(item, ":") {
			continue
		}
		out = append(out, item)
	}
	return out
}

func firstListItem(s string) string {
	items := splitList(s)
	if len(items) == 0 {
		return ""
	}
	return items[0]
}
