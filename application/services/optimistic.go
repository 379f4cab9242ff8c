package services

// optimisticMutation is the single reusable shape behind every
// optimistic cache path: snapshot-before (captured in the closures),
// speculative apply, remote call, restore-from-snapshot on failure,
// and an always-run settle step for the mandatory invalidation.
//
// Mutations that are not latency-sensitive skip this helper entirely
// and write the cache only after remote confirmation.
type optimisticMutation struct {
	// speculate applies the optimistic write to the cache
	speculate func()

	// remote performs the authoritative store call
	remote func() error

	// restore puts the pre-mutation snapshot back; runs only when
	// remote fails
	restore func()

	// settle runs after success and failure alike, strictly after
	// restore
	settle func()
}

// run executes the mutation and returns the remote call's error
func (m optimisticMutation) run() error {
	if m.speculate != nil {
		m.speculate()
	}

	err := m.remote()
	if err != nil && m.restore != nil {
		m.restore()
	}

	if m.settle != nil {
		m.settle()
	}
	return err
}
