package exchange

// ReentrancyGuard is a single-flag lock shared by every protected operation on
// an engine instance. It has two states, unlocked (initial) and locked; a
// protected call flips it to locked on entry and the lock is released on every
// exit path. Attempting to enter while locked is the error condition, so two
// different protected operations can never nest even when logically safe.
type ReentrancyGuard struct {
	locked bool
}

// Do executes op if no other protected operation is currently running,
// otherwise it fails with ErrReentrantCall. The guard is restored to the
// unlocked state whether op succeeds or fails.
func (g *ReentrancyGuard) Do(op func() error) error {
	if g == nil {
		return op()
	}
	if g.locked {
		return ErrReentrantCall
	}
	g.locked = true
	defer func() { g.locked = false }()
	return op()
}
