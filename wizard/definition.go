package wizard

import (
	"fmt"
	"strings"

	"github.com/tbxark/formwizard/resolver"
	"github.com/tbxark/formwizard/validation"
)

// Dependency binds a select field to a resolver keyed by a parent field.
// Root lists have no Parent and resolve once on mount.
type Dependency struct {
	Parent   string
	Field    string
	Fallback string
	Resolver *resolver.Resolver
}

// Definition is everything the wizard needs to know about one form.
type Definition struct {
	FormKey      string
	Engine       *validation.Engine
	Dependencies []Dependency
}

func (d Definition) validate() error {
	if strings.TrimSpace(d.FormKey) == "" {
		return fmt.Errorf("form key is required")
	}
	if d.Engine == nil {
		return fmt.Errorf("validation engine is required")
	}
	for i, dep := range d.Dependencies {
		if dep.Resolver == nil {
			return fmt.Errorf("dependency %d: resolver is required", i)
		}
		for _, name := range []string{dep.Parent, dep.Field, dep.Fallback} {
			if name == "" {
				continue
			}
			if _, _, ok := d.Engine.Field(name); !ok {
				return fmt.Errorf("dependency %d: unknown field %q", i, name)
			}
		}
		if dep.Field == "" {
			return fmt.Errorf("dependency %d: field is required", i)
		}
	}
	return nil
}
