package tokenmodule

import "github.com/klingon-exchange/duopool/internal/identity"

// Snapshotter is implemented by Module backings capable of participating
// in the host's all-or-nothing commit: Snapshot captures enough state to
// undo every sub-call issued since, and Restore replays it.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

type simState struct {
	mints    map[identity.Address]Mint
	accounts map[identity.Address]Account
}

// Snapshot returns a deep copy of the simulator's mint and account tables.
func (s *Simulator) Snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	mints := make(map[identity.Address]Mint, len(s.mints))
	for k, v := range s.mints {
		mints[k] = v
	}
	accounts := make(map[identity.Address]Account, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}
	return simState{mints: mints, accounts: accounts}
}

// Restore replaces the simulator's tables with a snapshot taken earlier
// by Snapshot. The argument must have come from this same Simulator.
func (s *Simulator) Restore(snapshot any) {
	st, ok := snapshot.(simState)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mints = st.mints
	s.accounts = st.accounts
}
