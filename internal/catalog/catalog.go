// Package catalog loads the static municipality dataset and resolves
// display names to geocodes, populations and boundaries.
package catalog

import (
	"sort"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/w-datascientist/arbovirose/internal/model"
)

// DefaultMunicipality is preselected when the caller names none.
const DefaultMunicipality = "São Paulo - SP"

// Catalog is an immutable name-keyed set of municipalities. It is safe for
// concurrent use.
type Catalog struct {
	byName map[string]*model.Municipality
	folded map[string]string
	names  []string
}

// New builds a catalog. A later entry with the same name replaces an
// earlier one.
func New(munis []model.Municipality) *Catalog {
	c := &Catalog{
		byName: make(map[string]*model.Municipality, len(munis)),
		folded: make(map[string]string, len(munis)),
	}
	for i := range munis {
		m := munis[i]
		c.byName[m.Name] = &m
	}
	c.names = make([]string, 0, len(c.byName))
	for name := range c.byName {
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	for _, name := range c.names {
		key := Fold(name)
		if _, taken := c.folded[key]; !taken {
			c.folded[key] = name
		}
	}
	return c
}

// Len returns the number of municipalities.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Names returns the display names in ascending order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Search returns the names whose folded form contains the folded query.
func (c *Catalog) Search(query string) []string {
	q := Fold(query)
	var out []string
	for _, name := range c.names {
		if strings.Contains(Fold(name), q) {
			out = append(out, name)
		}
	}
	return out
}

// Lookup resolves a display name, first exactly and then ignoring case,
// accents and repeated whitespace.
func (c *Catalog) Lookup(name string) (*model.Municipality, error) {
	if m, ok := c.byName[name]; ok {
		return m, nil
	}
	if exact, ok := c.folded[Fold(name)]; ok {
		return c.byName[exact], nil
	}
	return nil, eris.Wrapf(model.ErrMunicipalityNotFound, "catalog: lookup %q", name)
}

// Default returns DefaultMunicipality when present, else the first name.
func (c *Catalog) Default() (*model.Municipality, error) {
	if len(c.names) == 0 {
		return nil, eris.Wrap(model.ErrCatalogUnavailable, "catalog: empty")
	}
	if m, ok := c.byName[DefaultMunicipality]; ok {
		return m, nil
	}
	return c.byName[c.names[0]], nil
}

// Fold lowercases s, strips combining marks and collapses whitespace.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}
