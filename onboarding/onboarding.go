package onboarding

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/tbxark/formwizard/resolver"
	"github.com/tbxark/formwizard/store"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/validation"
	"github.com/tbxark/formwizard/wizard"
)

const FormKey = "onboarding"

const (
	FieldFullName        = "full_name"
	FieldDateOfBirth     = "date_of_birth"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldCountry         = "country"
	FieldRegion          = "region"
	FieldRegionText      = "region_text"
	FieldCity            = "city"
	FieldPostalCode      = "postal_code"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldOccupation      = "occupation"
	FieldSourceOfFunds   = "source_of_funds"
	FieldNewsletter      = "newsletter"
	FieldAcceptTerms     = "accept_terms"
)

//go:embed reference.yaml
var referenceData []byte

// DefaultProvider serves the bundled country and region list.
func DefaultProvider() (*resolver.StaticProvider, error) {
	return resolver.ParseStaticProvider(referenceData)
}

var SourceOfFunds = []types.Option{
	{Label: "Salary", Value: "salary"},
	{Label: "Savings", Value: "savings"},
	{Label: "Investments", Value: "investments"},
	{Label: "Business income", Value: "business"},
	{Label: "Inheritance", Value: "inheritance"},
	{Label: "Other", Value: "other"},
}

type Options struct {
	MinAge         int
	PhoneMinDigits int
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MinAge <= 0 {
		o.MinAge = 18
	}
	if o.PhoneMinDigits <= 0 {
		o.PhoneMinDigits = 10
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

const (
	regionListUsable   = `lists.region not in ["error", "empty"]`
	regionListFallback = `lists.region in ["error", "empty"]`
)

// Steps returns the six onboarding steps in order.
func Steps(opts Options) []validation.StepDefinition {
	opts = opts.withDefaults()
	return []validation.StepDefinition{
		{
			Title: "Personal details",
			Fields: []validation.FieldDefinition{
				{Name: FieldFullName, Label: "Full name", Required: true, Sanitize: true,
					Rules: []validation.Rule{validation.FullName(), validation.MaxLength(100)}},
				{Name: FieldDateOfBirth, Label: "Date of birth", Description: "YYYY-MM-DD", Required: true,
					Rules: []validation.Rule{validation.Date(validation.DateLayout), validation.AgeGate(opts.MinAge, opts.Now)}},
			},
		},
		{
			Title: "Contact",
			Fields: []validation.FieldDefinition{
				{Name: FieldEmail, Label: "Email", Required: true, Rules: []validation.Rule{validation.Email()}},
				{Name: FieldPhone, Label: "Phone number", Required: true, Rules: []validation.Rule{validation.Phone(opts.PhoneMinDigits)}},
			},
		},
		{
			Title: "Address",
			Fields: []validation.FieldDefinition{
				{Name: FieldCountry, Label: "Country", Required: true},
				{Name: FieldRegion, Label: "State / Province", Required: true, VisibleWhen: regionListUsable},
				{Name: FieldRegionText, Label: "State / Province", Description: "Type your state or province", Required: true,
					VisibleWhen: regionListFallback, Sanitize: true, Rules: []validation.Rule{validation.MaxLength(100)}},
				{Name: FieldCity, Label: "City", Required: true, Sanitize: true, Rules: []validation.Rule{validation.MaxLength(100)}},
				{Name: FieldPostalCode, Label: "Postal code", Required: true, Sanitize: true, Rules: []validation.Rule{validation.MaxLength(12)}},
			},
		},
		{
			Title: "Security",
			Fields: []validation.FieldDefinition{
				{Name: FieldPassword, Label: "Password", Required: true, Sensitive: true, Rules: []validation.Rule{validation.Password()}},
				{Name: FieldConfirmPassword, Label: "Confirm password", Required: true, Sensitive: true,
					Rules: []validation.Rule{validation.Confirmation(FieldPassword, "Passwords")}},
			},
		},
		{
			Title: "Profile",
			Fields: []validation.FieldDefinition{
				{Name: FieldOccupation, Label: "Occupation", Required: true, Sanitize: true, Rules: []validation.Rule{validation.MaxLength(100)}},
				{Name: FieldSourceOfFunds, Label: "Source of funds", Required: true, Options: SourceOfFunds,
					Rules: []validation.Rule{validation.OneOf(SourceOfFunds, "Please choose a source of funds")}},
				{Name: FieldNewsletter, Label: "Send me product news", Default: false},
			},
		},
		{
			Title: "Review",
			Fields: []validation.FieldDefinition{
				{Name: FieldAcceptTerms, Label: "I accept the terms and conditions", Default: false,
					Rules: []validation.Rule{validation.Checked("You must accept the terms and conditions")}},
			},
		},
	}
}

// NewEngine builds the validation engine for the onboarding steps.
func NewEngine(opts Options, visibility validation.Visibility) (*validation.Engine, error) {
	engine, err := validation.NewEngine(Steps(opts), validation.WithVisibility(visibility))
	if err != nil {
		return nil, fmt.Errorf("failed to build onboarding steps: %w", err)
	}
	return engine, nil
}

// Schema is what the durable store needs to restore onboarding sessions.
func Schema(engine *validation.Engine) store.FormSchema {
	return store.FormSchema{Defaults: engine.Defaults(), TotalSteps: engine.TotalSteps()}
}

// Definition wires the country list and the country-dependent region list.
func Definition(formKey string, engine *validation.Engine, provider resolver.Provider, opts ...resolver.Option) wizard.Definition {
	if formKey == "" {
		formKey = FormKey
	}
	countryOpts := append([]resolver.Option{resolver.WithRootList()}, opts...)
	return wizard.Definition{
		FormKey: formKey,
		Engine:  engine,
		Dependencies: []wizard.Dependency{
			{
				Field:    FieldCountry,
				Resolver: resolver.New(FieldCountry, resolver.CountriesFetcher(provider), countryOpts...),
			},
			{
				Parent:   FieldCountry,
				Field:    FieldRegion,
				Fallback: FieldRegionText,
				Resolver: resolver.New(FieldRegion, resolver.RegionsFetcher(provider), opts...),
			},
		},
	}
}
