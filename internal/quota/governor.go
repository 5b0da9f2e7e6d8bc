package quota

// Limits holds the daily budget of each pool.
type Limits struct {
	Catalog   int
	Analytics int
}

// DefaultLimits are the stock daily budgets.
var DefaultLimits = Limits{Catalog: 200, Analytics: 200}

// Governor turns the ledger and registry into check-then-spend decisions.
// It keeps no state of its own. Callers must call CanSpend before Spend
// and must not Spend after a false CanSpend.
type Governor struct {
	ledger   *Ledger
	registry *Registry
	limits   Limits
}

// NewGovernor composes a Governor.
func NewGovernor(ledger *Ledger, registry *Registry, limits Limits) *Governor {
	return &Governor{ledger: ledger, registry: registry, limits: limits}
}

// Limit returns the configured daily budget for pool.
func (g *Governor) Limit(pool Pool) int {
	switch pool {
	case PoolCatalog:
		return g.limits.Catalog
	case PoolAnalytics:
		return g.limits.Analytics
	}
	return 0
}

// CanSpend reports whether pool has budget left today.
func (g *Governor) CanSpend(pool Pool) bool {
	return g.ledger.ReadBucket(pool).Count < g.Limit(pool)
}

// Spend records one call against pool.
func (g *Governor) Spend(pool Pool) error {
	return g.ledger.Spend(pool)
}

// CallsLeft returns the remaining budget for pool today.
func (g *Governor) CallsLeft(pool Pool) int {
	return g.ledger.CallsLeft(pool, g.Limit(pool))
}

// WasCounted reports whether query was already credited to analytics today.
func (g *Governor) WasCounted(query string) bool {
	return g.registry.WasCountedToday(query)
}

// MarkCounted records query as credited to analytics today.
func (g *Governor) MarkCounted(query string) error {
	return g.registry.MarkCountedToday(query)
}
