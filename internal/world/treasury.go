package world

// Treasury is the town's soul balance. It has no lock of its own; the world
// lock covers it.
type Treasury struct {
	balance int64
}

func NewTreasury(start int64) *Treasury {
	return &Treasury{balance: start}
}

func (t *Treasury) Balance() int64 { return t.balance }

func (t *Treasury) CanAfford(n int64) bool {
	return n >= 0 && n <= t.balance
}

// Add credits n souls and returns the new balance.
func (t *Treasury) Add(n int64) int64 {
	t.balance += n
	return t.balance
}

// Spend debits n souls if the balance covers it.
func (t *Treasury) Spend(n int64) bool {
	if !t.CanAfford(n) {
		return false
	}
	t.balance -= n
	return true
}
