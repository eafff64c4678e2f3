package usecase

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// QueryPreprocessor turns noisy retail product titles into short catalog queries
type QueryPreprocessor struct {
	enableDebugLogging bool
	logger             *zap.Logger
}

var (
	// "500g", "1.5 litre", "4 x 330ml", "2 pints"
	sizeQuantityPattern = regexp.MustCompile(`(?i)\b(\d+\s*x\s*)?\d+([.,]\d+)?\s*(fl\s*oz|oz|ml|cl|l|litres?|liters?|pints?|gallons?|lbs?|pounds?|kg|grams?|g)\b`)

	// "6 pack", "pack of 4", "12ct", "x6"
	packCountPattern = regexp.MustCompile(`(?i)\b\d+[-\s]*(pack|pk|count|ct)\b|\bpack\s+of\s+\d+\b|\bx\s*\d+\b|\b\d+\s*(cans?|bottles?|pouches?|bars?|pieces?|rolls?)\b`)

	punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}\s&'-]`)
	tokenSplitPattern  = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// queryNoiseWords are marketing and packaging terms that never identify a product
var queryNoiseWords = map[string]bool{
	"value": true, "family": true, "bonus": true, "new": true, "improved": true,
	"premium": true, "select": true, "choice": true, "quality": true, "best": true,
	"finest": true, "essential": true, "everyday": true, "basics": true,
	"delicious": true, "tasty": true, "favourite": true, "favorite": true, "special": true,
	"size": true, "large": true, "medium": true, "small": true, "mini": true,
	"jumbo": true, "giant": true, "big": true, "multipack": true,
	"box": true, "bag": true, "bottle": true, "can": true, "jar": true,
	"tub": true, "carton": true, "pouch": true, "tray": true, "punnet": true,
}

// stopWords are dropped when tokenizing for keyword extraction
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"in": true, "on": true, "with": true, "for": true, "by": true, "from": true,
	"per": true, "each": true, "approx": true,
}

// foodTerms are high-signal product nouns
var foodTerms = map[string]bool{
	"milk": true, "cheese": true, "cheddar": true, "mozzarella": true, "yogurt": true,
	"yoghurt": true, "butter": true, "cream": true, "eggs": true, "egg": true,
	"bread": true, "rolls": true, "bagel": true, "bagels": true, "croissant": true,
	"rice": true, "pasta": true, "spaghetti": true, "cereal": true, "oats": true, "flour": true,
	"chicken": true, "beef": true, "pork": true, "bacon": true, "sausages": true,
	"ham": true, "salmon": true, "tuna": true, "fish": true, "prawns": true,
	"apple": true, "apples": true, "banana": true, "bananas": true, "orange": true,
	"oranges": true, "grapes": true, "strawberries": true, "tomato": true, "tomatoes": true,
	"potato": true, "potatoes": true, "onion": true, "onions": true, "carrot": true,
	"carrots": true, "lettuce": true, "broccoli": true, "spinach": true, "avocado": true,
	"juice": true, "water": true, "cola": true, "coffee": true, "tea": true,
	"crisps": true, "chocolate": true, "biscuits": true, "cookies": true,
	"ketchup": true, "mayonnaise": true, "beans": true, "soup": true, "pizza": true,
	"peas": true, "chips": true, "icecream": true, "honey": true, "jam": true,
}

// descriptiveTerms qualify a product without naming it
var descriptiveTerms = map[string]bool{
	"whole": true, "semi": true, "skimmed": true, "organic": true, "free": true,
	"range": true, "fresh": true, "frozen": true, "smoked": true, "unsmoked": true,
	"mature": true, "mild": true, "extra": true, "strong": true, "sliced": true,
	"grated": true, "wholemeal": true, "white": true, "brown": true, "seeded": true,
	"salted": true, "unsalted": true, "natural": true, "greek": true, "plain": true,
	"sparkling": true, "still": true, "diet": true, "light": true, "lean": true,
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(enableDebugLogging bool, logger *zap.Logger) *QueryPreprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryPreprocessor{
		enableDebugLogging: enableDebugLogging,
		logger:             logger,
	}
}

// CleanProductName strips sizes, pack counts, marketing noise and the brand
// from a product title so it can be matched against the catalog.
func (p *QueryPreprocessor) CleanProductName(productName, brand string) string {
	if strings.TrimSpace(productName) == "" {
		return ""
	}

	// Brands come as "Cathedral City, Saputo"; remove each listed one
	cleaned := productName
	for _, b := range strings.Split(brand, ",") {
		cleaned = removeFold(cleaned, strings.TrimSpace(b))
	}

	cleaned = sizeQuantityPattern.ReplaceAllString(cleaned, " ")
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")
	cleaned = punctuationPattern.ReplaceAllString(cleaned, " ")

	cleaned = removeNoiseWords(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if p.enableDebugLogging {
		p.logger.Debug("cleaned product name",
			zap.String("input", productName),
			zap.String("output", cleaned))
	}

	return cleaned
}

// ExtractFoodKeywords returns tokens of text ordered by importance:
// food nouns first, then descriptors, then everything else.
func (p *QueryPreprocessor) ExtractFoodKeywords(text string) []string {
	tokens := tokenize(text)

	var high, medium, low []string
	for _, token := range tokens {
		switch {
		case foodTerms[token]:
			high = append(high, token)
		case descriptiveTerms[token]:
			medium = append(medium, token)
		default:
			low = append(low, token)
		}
	}

	result := make([]string, 0, len(tokens))
	result = append(result, high...)
	result = append(result, medium...)
	result = append(result, low...)
	return result
}

// tokenize splits s into unique lowercase tokens, dropping stop words,
// single characters and pure numbers
func tokenize(s string) []string {
	words := tokenSplitPattern.Split(strings.ToLower(s), -1)

	seen := make(map[string]bool, len(words))
	var tokens []string
	for _, word := range words {
		if len(word) <= 1 || stopWords[word] || isNumeric(word) || seen[word] {
			continue
		}
		seen[word] = true
		tokens = append(tokens, word)
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func removeNoiseWords(s string) string {
	words := strings.Fields(s)
	kept := words[:0]
	for _, word := range words {
		if !queryNoiseWords[strings.ToLower(strings.Trim(word, "&'-"))] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// removeFold removes every case-insensitive occurrence of sub from s
func removeFold(s, sub string) string {
	if sub == "" {
		return s
	}
	return regexp.MustCompile(`(?i)`+regexp.QuoteMeta(sub)).ReplaceAllString(s, " ")
}
