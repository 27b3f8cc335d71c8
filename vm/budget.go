package vm

// DefaultBudget is the step budget of a run when none is configured.
const DefaultBudget = 5000

// Budget is the step counter shared by every frame of one run. It only ever
// decreases; a callee spends from the same budget as its caller.
type Budget struct {
	limit int64
	used  int64
}

// NewBudget creates a budget of limit steps. Negative limits are clamped to
// zero, which leaves no steps at all.
func NewBudget(limit int64) *Budget {
	if limit < 0 {
		limit = 0
	}
	return &Budget{limit: limit}
}

func (b *Budget) Limit() int64 {
	if b == nil {
		return 0
	}
	return b.limit
}

func (b *Budget) Used() int64 {
	if b == nil {
		return 0
	}
	return b.used
}

// Remaining returns the steps left.
func (b *Budget) Remaining() int64 {
	if b == nil {
		return 0
	}
	return b.limit - b.used
}

// Exhausted reports whether no steps are left.
func (b *Budget) Exhausted() bool {
	return b.Remaining() <= 0
}

// Charge spends one step. It returns false, spending nothing, when the
// budget is already exhausted.
func (b *Budget) Charge() bool {
	if b == nil || b.used >= b.limit {
		return false
	}
	b.used++
	return true
}
