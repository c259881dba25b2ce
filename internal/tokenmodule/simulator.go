package tokenmodule

import (
	"sync"

	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
)

// Simulator is an in-memory Module used by the host simulator and by unit
// tests in place of a live cross-module call. It has no concept of mint
// creation beyond what tests set up directly via Seed*.
type Simulator struct {
	mu       sync.Mutex
	mints    map[identity.Address]Mint
	accounts map[identity.Address]Account
}

// NewSimulator returns an empty Simulator.
func NewSimulator() *Simulator {
	return &Simulator{
		mints:    make(map[identity.Address]Mint),
		accounts: make(map[identity.Address]Account),
	}
}

// SeedMint registers a mint record directly, bypassing the adapter
// surface. Test and Initialize-processing fixtures use this to set up
// outcome and collateral mints before any instruction runs.
func (s *Simulator) SeedMint(addr identity.Address, m Mint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mints[addr] = m
}

// SeedAccount registers a token account record directly.
func (s *Simulator) SeedAccount(addr identity.Address, a Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[addr] = a
}

func (s *Simulator) GetMint(addr identity.Address) (Mint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mints[addr]
	return m, ok
}

func (s *Simulator) GetAccount(addr identity.Address) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[addr]
	return a, ok
}

func (s *Simulator) InitializeAccount(addr, mint, owner identity.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[addr]; exists {
		return wrapf(errors.AlreadyInUse, "account %s already initialized", addr)
	}
	s.accounts[addr] = Account{Initialized: true, Owner: owner, Mint: mint}
	return nil
}

func (s *Simulator) MintTo(mint, dest identity.Address, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[dest]
	if !ok || !acct.Initialized {
		return wrapf(errors.AccountNotInitialized, "mint_to destination %s", dest)
	}
	if acct.Mint != mint {
		return wrapf(errors.InvalidMints, "mint_to destination %s holds a different mint", dest)
	}
	acct.Amount += amount
	s.accounts[dest] = acct
	return nil
}

func (s *Simulator) Burn(mint, src identity.Address, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[src]
	if !ok || !acct.Initialized {
		return wrapf(errors.AccountNotInitialized, "burn source %s", src)
	}
	if acct.Mint != mint {
		return wrapf(errors.InvalidMints, "burn source %s holds a different mint", src)
	}
	if acct.Amount < amount {
		return wrapf(errors.InsufficientFunds, "burn %d from %s with balance %d", amount, src, acct.Amount)
	}
	acct.Amount -= amount
	s.accounts[src] = acct
	return nil
}

func (s *Simulator) Transfer(src, dest identity.Address, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transferLocked(src, dest, amount)
}

func (s *Simulator) TransferSigned(src, dest, authority identity.Address, amount uint64, seeds [][]byte, bump byte, programID identity.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	srcAcct, ok := s.accounts[src]
	if !ok || !srcAcct.Initialized {
		return wrapf(errors.AccountNotInitialized, "transfer_signed source %s", src)
	}
	if srcAcct.Owner != authority {
		return wrapf(errors.InvalidAuthorityAccount, "transfer_signed source %s not owned by derived authority %s", src, authority)
	}
	return s.transferLocked(src, dest, amount)
}

func (s *Simulator) transferLocked(src, dest identity.Address, amount uint64) error {
	srcAcct, ok := s.accounts[src]
	if !ok || !srcAcct.Initialized {
		return wrapf(errors.AccountNotInitialized, "transfer source %s", src)
	}
	destAcct, ok := s.accounts[dest]
	if !ok || !destAcct.Initialized {
		return wrapf(errors.AccountNotInitialized, "transfer destination %s", dest)
	}
	if srcAcct.Mint != destAcct.Mint {
		return wrapf(errors.InvalidMints, "transfer between accounts of different mints")
	}
	if srcAcct.Amount < amount {
		return wrapf(errors.InsufficientFunds, "transfer %d from %s with balance %d", amount, src, srcAcct.Amount)
	}
	srcAcct.Amount -= amount
	destAcct.Amount += amount
	s.accounts[src] = srcAcct
	s.accounts[dest] = destAcct
	return nil
}

func (s *Simulator) SetAuthority(account, newOwner identity.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[account]
	if !ok || !acct.Initialized {
		return wrapf(errors.AccountNotInitialized, "set_authority on %s", account)
	}
	acct.Owner = newOwner
	s.accounts[account] = acct
	return nil
}
