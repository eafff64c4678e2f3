// Package catalog loads the static product catalog and keeps the current
// snapshot available to the matcher.
package catalog

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cartpilot/backend/internal/domain"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// catalogFile is the on-disk YAML layout
type catalogFile struct {
	Version  string                       `yaml:"version"`
	Products []domain.ProductCatalogEntry `yaml:"products"`
}

// Load reads a catalog from path, or the embedded default when path is empty
func Load(path string) (*domain.Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML. The snapshot version is the declared
// version suffixed with a hash of the content, so an edit that forgets to bump
// the declared version still yields a new version. Without a declared version
// the hash alone is used.
func Parse(data []byte) (*domain.Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding catalog yaml: %w", err)
	}

	if len(file.Products) == 0 {
		return nil, fmt.Errorf("%w: catalog has no products", domain.ErrInvalidCatalogEntry)
	}

	version := contentVersion(data)
	if declared := strings.TrimSpace(file.Version); declared != "" {
		version = declared + "+" + version
	}

	return domain.NewCatalog(version, file.Products)
}

func contentVersion(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256-" + hex.EncodeToString(sum[:6])
}
