package workflow

import "fmt"

// Plan is a purchasable catalog entry. The catalog is static for the
// lifetime of the process; it currently holds a single plan but the
// model supports any number.
type Plan struct {
	ID   string
	Name string
	// Price and Units are display strings, e.g. "100 GHS" and "10 Odds".
	Price string
	Units string
}

// Catalog resolves plan ids. The first configured plan is the default
// used when a customer submits proof without a recorded intent.
type Catalog struct {
	plans []Plan
	byID  map[string]Plan
}

// NewCatalog builds a catalog from the configured plans.
func NewCatalog(plans []Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("catalog: at least one plan is required")
	}
	byID := make(map[string]Plan, len(plans))
	for _, p := range plans {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog: plan with empty id")
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate plan id %q", p.ID)
		}
		byID[p.ID] = p
	}
	return &Catalog{plans: plans, byID: byID}, nil
}

// Get looks up a plan by id.
func (c *Catalog) Get(id string) (Plan, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Default returns the fallback plan.
func (c *Catalog) Default() Plan {
	return c.plans[0]
}

// Plans returns the catalog in configuration order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Resolve returns the plan for id, falling back to the default when id
// is empty, and reports whether id resolved to a known plan. An
// unknown non-empty id keeps the default plan's details out of the
// picture so display logic can degrade gracefully.
func (c *Catalog) Resolve(id string) (Plan, bool) {
	if id == "" {
		return c.Default(), true
	}
	p, ok := c.byID[id]
	if !ok {
		return Plan{ID: id}, false
	}
	return p, true
}
