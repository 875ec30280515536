package resolver

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StaticProvider serves reference data from a YAML document:
//
//	countries:
//	  - name: Canada
//	    code: CA
//	    regions: [Alberta, Ontario]
type StaticProvider struct {
	countries []Country
	byCode    map[string]Country
}

var _ Provider = (*StaticProvider)(nil)

type staticDocument struct {
	Countries []Country `yaml:"countries"`
}

func LoadStaticProvider(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}
	return ParseStaticProvider(data)
}

func ParseStaticProvider(data []byte) (*StaticProvider, error) {
	var doc staticDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}
	return NewStaticProvider(doc.Countries)
}

func NewStaticProvider(countries []Country) (*StaticProvider, error) {
	p := &StaticProvider{byCode: make(map[string]Country, len(countries))}
	for i, c := range countries {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" || strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("country %d: name and code are required", i)
		}
		if _, dup := p.byCode[code]; dup {
			return nil, fmt.Errorf("country %d: duplicate code %q", i, code)
		}
		c.Code = code
		p.byCode[code] = c
		p.countries = append(p.countries, c)
	}
	return p, nil
}

func (p *StaticProvider) ListCountries(ctx context.Context) ([]Country, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Country, len(p.countries))
	copy(out, p.countries)
	return out, nil
}

// ListRegions returns an empty list for countries without regions so the
// caller can fall back to free text.
func (p *StaticProvider) ListRegions(ctx context.Context, countryCode string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := p.byCode[strings.ToUpper(strings.TrimSpace(countryCode))]
	if !ok {
		return nil, fmt.Errorf("unknown country %q", countryCode)
	}
	return append([]string(nil), c.Regions...), nil
}
