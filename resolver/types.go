package resolver

import (
	"context"

	"github.com/tbxark/formwizard/types"
)

type Country struct {
	Name    string   `json:"name" yaml:"name"`
	Code    string   `json:"code" yaml:"code"`
	Regions []string `json:"regions,omitempty" yaml:"regions"`
}

// Provider is the remote reference-data service. Both calls may be slow,
// fail or time out.
type Provider interface {
	ListCountries(ctx context.Context) ([]Country, error)
	ListRegions(ctx context.Context, countryCode string) ([]string, error)
}

// Fetcher loads the options that belong to a parent value.
type Fetcher func(ctx context.Context, parent string) ([]types.Option, error)

func CountriesFetcher(p Provider) Fetcher {
	return func(ctx context.Context, _ string) ([]types.Option, error) {
		countries, err := p.ListCountries(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]types.Option, 0, len(countries))
		for _, c := range countries {
			out = append(out, types.Option{Label: c.Name, Value: c.Code})
		}
		return out, nil
	}
}

func RegionsFetcher(p Provider) Fetcher {
	return func(ctx context.Context, countryCode string) ([]types.Option, error) {
		regions, err := p.ListRegions(ctx, countryCode)
		if err != nil {
			return nil, err
		}
		out := make([]types.Option, 0, len(regions))
		for _, r := range regions {
			out = append(out, types.Option{Label: r, Value: r})
		}
		return out, nil
	}
}

// DependentList is the option set of a dependent field for one parent value.
type DependentList struct {
	Parent  string           `json:"parent"`
	Status  types.ListStatus `json:"status"`
	Options []types.Option   `json:"options,omitempty"`
	Err     error            `json:"-"`
}

// NeedsFallback reports whether the step should offer free-text entry
// instead of a select.
func (l DependentList) NeedsFallback() bool {
	return l.Status == types.ListError || l.Status == types.ListEmpty
}

func (l DependentList) Has(value string) bool {
	for _, o := range l.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Request identifies one resolution. Tag is unique per resolver and grows
// with every parent change.
type Request struct {
	Tag    uint64
	Parent string
}

type Result struct {
	Request
	Options []types.Option
	Err     error
}
