// Package region holds the neighborhood allow-list and the fuzzy matcher
// that backs the location guardrail tool.
package region

import "fmt"

// Record is one allow-listed neighborhood. Static, immutable, loaded at
// process start.
type Record struct {
	// Key is the canonical neighborhood name, unique within the catalog.
	Key         string
	Focus       string
	Description string
	Aliases     []string
}

// Catalog is the immutable set of allow-listed neighborhoods plus the
// recognized city variants. Construct once and pass explicitly to the
// components that need it.
type Catalog struct {
	records      []Record
	byCanonical  map[string]*Record
	byAlias      map[string]*Record
	cities       map[string]struct{}
	fallbackLink string
}

// NewCatalog builds a catalog and enforces the uniqueness invariants:
// canonical keys are unique and no two records share an alias after
// normalization. The data is static, so violations panic at startup.
func NewCatalog(records []Record, cityVariants []string, fallbackLink string) *Catalog {
	c := &Catalog{
		records:      records,
		byCanonical:  make(map[string]*Record, len(records)),
		byAlias:      make(map[string]*Record),
		cities:       make(map[string]struct{}, len(cityVariants)),
		fallbackLink: fallbackLink,
	}

	for i := range records {
		r := &c.records[i]
		key := Normalize(r.Key)
		if _, dup := c.byCanonical[key]; dup {
			panic(fmt.Sprintf("region: duplicate canonical key %q", r.Key))
		}
		c.byCanonical[key] = r

		for _, alias := range r.Aliases {
			norm := Normalize(alias)
			if owner, dup := c.byAlias[norm]; dup && owner != r {
				panic(fmt.Sprintf("region: alias %q maps to both %q and %q", alias, owner.Key, r.Key))
			}
			if _, shadows := c.byCanonical[norm]; shadows {
				panic(fmt.Sprintf("region: alias %q shadows a canonical key", alias))
			}
			c.byAlias[norm] = r
		}
	}

	for _, city := range cityVariants {
		c.cities[Normalize(city)] = struct{}{}
	}

	return c
}

// DefaultCatalog returns the Florianópolis focus areas.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		[]Record{
			{
				Key:         "centro",
				Focus:       "Studios e Comercial",
				Description: "Coração urbano da cidade, demanda constante por studios e pontos comerciais.",
				Aliases:     []string{"centro de florianópolis", "centro histórico"},
			},
			{
				Key:         "itacorubi",
				Focus:       "Público universitário e tech",
				Description: "Polo universitário e de tecnologia, demanda recorrente de locação anual.",
				Aliases:     []string{"itacorubí"},
			},
			{
				Key:         "campeche",
				Focus:       "Rentabilidade de curto prazo / Airbnb",
				Description: "Bairro com forte apelo turístico no sul da ilha, ideal para locação de curta temporada.",
				Aliases:     []string{"praia do campeche", "novo campeche"},
			},
			{
				Key:         "jurerê internacional",
				Focus:       "Luxo e alto padrão",
				Description: "Região nobre no norte da ilha, foco em empreendimentos de luxo e alta rentabilidade.",
				Aliases:     []string{"jurerê", "jurere international"},
			},
		},
		[]string{
			"florianópolis",
			"florianopolis",
			"floripa",
			"florianópolis - sc",
			"florianópolis, sc",
			"florianópolis/sc",
		},
		"http://google.com/maps/place/florianopolis",
	)
}

// Records returns the allow-listed neighborhoods in declaration order.
func (c *Catalog) Records() []Record {
	return c.records
}

// FallbackLink is the map link offered on guardrail rejections.
func (c *Catalog) FallbackLink() string {
	return c.fallbackLink
}

// RecognizedCity reports whether the input normalizes to a known variant
// of the target city.
func (c *Catalog) RecognizedCity(input string) bool {
	_, ok := c.cities[Normalize(input)]
	return ok
}

// Lookup resolves an input against canonical keys and aliases by exact
// normalized equality only. Used by submitQualification, which must not
// fuzzy-match.
func (c *Catalog) Lookup(input string) (*Record, bool) {
	norm := Normalize(input)
	if r, ok := c.byCanonical[norm]; ok {
		return r, true
	}
	if r, ok := c.byAlias[norm]; ok {
		return r, true
	}
	return nil, false
}
