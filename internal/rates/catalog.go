package rates

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry maps a public pair name to the upstream exchange symbol.
type Entry struct {
	Pair   string
	Symbol string
}

// Catalog is the fixed pair→symbol mapping. Built once at startup and
// injected where needed; there is no global instance.
type Catalog struct {
	entries []Entry
	symbols map[string]string
}

// NewCatalog builds a catalog from a pair→symbol map. Entries are kept in
// pair order so every run walks the pairs deterministically.
func NewCatalog(pairs map[string]string) (Catalog, error) {
	if len(pairs) == 0 {
		return Catalog{}, fmt.Errorf("catalog needs at least one pair")
	}
	entries := make([]Entry, 0, len(pairs))
	symbols := make(map[string]string, len(pairs))
	for pair, symbol := range pairs {
		pair = strings.TrimSpace(pair)
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if err := ValidatePair(pair); err != nil {
			return Catalog{}, err
		}
		if symbol == "" {
			return Catalog{}, fmt.Errorf("pair %q has no upstream symbol", pair)
		}
		entries = append(entries, Entry{Pair: pair, Symbol: symbol})
		symbols[pair] = symbol
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Pair < entries[j].Pair })
	return Catalog{entries: entries, symbols: symbols}, nil
}

type catalogFile struct {
	Pairs map[string]string `yaml:"pairs"`
}

// LoadCatalog reads the pair catalog from a YAML file of the form:
//
//	pairs:
//	  EUR/BTC: BTCEUR
//	  EUR/ETH: ETHEUR
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("reading catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Catalog{}, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return NewCatalog(file.Pairs)
}

// Symbol resolves a public pair to its upstream symbol.
func (c Catalog) Symbol(pair string) (string, bool) {
	s, ok := c.symbols[pair]
	return s, ok
}

// Entries returns the catalog in pair order.
func (c Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Pairs returns the public pair names in order.
func (c Catalog) Pairs() []string {
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Pair)
	}
	return out
}

func (c Catalog) Len() int { return len(c.entries) }
