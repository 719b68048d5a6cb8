// Package catalog loads the read-only product list and flattens it into grounding text for the advisor.
package catalog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Categories known to the storefront.
const (
	CategoryWellness   = "Wellness"
	CategoryApparel    = "Apparel"
	CategoryEssentials = "Essentials"
	CategoryAtmosphere = "Atmosphere"
)

// Entry is one product as supplied by the storefront.
type Entry struct {
	ID          string  `json:"id" yaml:"id" toml:"id"`
	Name        string  `json:"name" yaml:"name" toml:"name"`
	Price       float64 `json:"price" yaml:"price" toml:"price"`
	Description string  `json:"description" yaml:"description" toml:"description"`
	Category    string  `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
}

// file is the on-disk layout shared by all supported formats.
type file struct {
	Products []Entry `json:"products" yaml:"products" toml:"products"`
}

// Load reads a catalog file. The format is chosen by extension: .yaml/.yml, .json or .toml.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read catalog file")
	}

	entries, err := Decode(filepath.Ext(path), data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode catalog file %s", path)
	}
	return entries, nil
}

// Decode parses catalog data in the format named by ext (".yaml", ".yml", ".json" or ".toml").
func Decode(ext string, data []byte) ([]Entry, error) {
	var f file
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(err, "parse yaml")
		}
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, errors.Wrap(err, "parse json")
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, errors.Wrap(err, "parse toml")
		}
	default:
		return nil, errors.Errorf("unsupported catalog format %q", ext)
	}

	for i, e := range f.Products {
		if strings.TrimSpace(e.Name) == "" {
			return nil, errors.Errorf("product %d has no name", i+1)
		}
		if e.Price < 0 {
			return nil, errors.Errorf("product %q has a negative price", e.Name)
		}
	}
	return f.Products, nil
}

// FormatPrice prints a price the way the storefront shows it: no trailing zeros.
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// Grounding flattens entries into one line per product: "name (价格: ¥price): description".
func Grounding(entries []Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Name+" (价格: ¥"+FormatPrice(e.Price)+"): "+e.Description)
	}
	return strings.Join(lines, "\n")
}

// Filter returns entries in category (empty or "All" matches every category) whose name or
// description contains query, case-insensitively.
func Filter(entries []Entry, category, query string) []Entry {
	query = strings.ToLower(strings.TrimSpace(query))

	var out []Entry
	for _, e := range entries {
		if category != "" && !strings.EqualFold(category, "All") && !strings.EqualFold(e.Category, category) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(e.Name), query) &&
			!strings.Contains(strings.ToLower(e.Description), query) {
			continue
		}
		out = append(out, e)
	}
	return out
}
