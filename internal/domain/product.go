package domain

import "time"

// ScannedProduct is a product resolved from a barcode via the external lookup API
type ScannedProduct struct {
	Barcode      string       `json:"barcode"`
	Name         string       `json:"name"`
	Brand        string       `json:"brand,omitempty"`
	Categories   []string     `json:"categories,omitempty"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	Nutrients    Nutrients    `json:"nutrients"`
	CatalogMatch *MatchResult `json:"catalogMatch,omitempty"`
	Source       string       `json:"source"` // "OpenFoodFacts" or "Cache"
	CachedAt     time.Time    `json:"cachedAt,omitempty"`
}

// Nutrients contains key macronutrients per 100 g
type Nutrients struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`       // grams
	Carbohydrates float64 `json:"carbohydrates"` // grams
	TotalFat      float64 `json:"totalFat"`      // grams
}

// OFFProductResponse is the Open Food Facts v2 product envelope
type OFFProductResponse struct {
	Code          string     `json:"code"`
	Status        int        `json:"status"`
	StatusVerbose string     `json:"status_verbose,omitempty"`
	Product       OFFProduct `json:"product"`
}

// OFFProduct is the subset of Open Food Facts product fields we consume
type OFFProduct struct {
	Code          string        `json:"code"`
	ProductName   string        `json:"product_name"`
	GenericName   string        `json:"generic_name,omitempty"`
	Brands        string        `json:"brands,omitempty"`
	Categories    string        `json:"categories,omitempty"`
	ImageFrontURL string        `json:"image_front_url,omitempty"`
	Nutriments    OFFNutriments `json:"nutriments"`
}

// OFFNutriments holds per-100g nutrient values
type OFFNutriments struct {
	EnergyKcal100g    float64 `json:"energy-kcal_100g"`
	Proteins100g      float64 `json:"proteins_100g"`
	Carbohydrates100g float64 `json:"carbohydrates_100g"`
	Fat100g           float64 `json:"fat_100g"`
}
