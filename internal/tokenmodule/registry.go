package tokenmodule

import (
	"github.com/klingon-exchange/duopool/internal/identity"
	"github.com/klingon-exchange/duopool/pkg/logging"
)

// Registry holds named Module implementations so a host can be pointed at
// different token-module backings (an in-memory simulator for tests, an
// audited decorator for a demo run) without the processor ever knowing
// which one it is talking to.
type Registry struct {
	modules map[string]Module
	active  string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds a named Module implementation.
func (r *Registry) Register(name string, m Module) {
	r.modules[name] = m
	if r.active == "" {
		r.active = name
	}
}

// Use selects which registered module subsequent Active() calls return.
func (r *Registry) Use(name string) bool {
	if _, ok := r.modules[name]; !ok {
		return false
	}
	r.active = name
	return true
}

// Active returns the currently selected Module.
func (r *Registry) Active() (Module, bool) {
	m, ok := r.modules[r.active]
	return m, ok
}

// List returns the names of all registered modules.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	return names
}

// Audited wraps a Module, logging every mutating call at debug level. It is
// itself a Module, so it can be registered and used transparently.
type Audited struct {
	inner Module
	log   *logging.Logger
}

// NewAudited wraps inner with logging under the given component name.
func NewAudited(inner Module, component string) *Audited {
	return &Audited{inner: inner, log: logging.GetDefault().Component(component)}
}

func (a *Audited) GetMint(addr identity.Address) (Mint, bool) { return a.inner.GetMint(addr) }

func (a *Audited) GetAccount(addr identity.Address) (Account, bool) {
	return a.inner.GetAccount(addr)
}

func (a *Audited) InitializeAccount(addr, mint, owner identity.Address) error {
	err := a.inner.InitializeAccount(addr, mint, owner)
	a.log.Debug("initialize_account", "account", addr, "mint", mint, "owner", owner, "error", err)
	return err
}

func (a *Audited) MintTo(mint, dest identity.Address, amount uint64) error {
	err := a.inner.MintTo(mint, dest, amount)
	a.log.Debug("mint_to", "mint", mint, "dest", dest, "amount", amount, "error", err)
	return err
}

func (a *Audited) Burn(mint, src identity.Address, amount uint64) error {
	err := a.inner.Burn(mint, src, amount)
	a.log.Debug("burn", "mint", mint, "src", src, "amount", amount, "error", err)
	return err
}

func (a *Audited) Transfer(src, dest identity.Address, amount uint64) error {
	err := a.inner.Transfer(src, dest, amount)
	a.log.Debug("transfer", "src", src, "dest", dest, "amount", amount, "error", err)
	return err
}

func (a *Audited) TransferSigned(src, dest, authority identity.Address, amount uint64, seeds [][]byte, bump byte, programID identity.Address) error {
	err := a.inner.TransferSigned(src, dest, authority, amount, seeds, bump, programID)
	a.log.Debug("transfer_signed", "src", src, "dest", dest, "authority", authority, "amount", amount, "error", err)
	return err
}

func (a *Audited) SetAuthority(account, newOwner identity.Address) error {
	err := a.inner.SetAuthority(account, newOwner)
	a.log.Debug("set_authority", "account", account, "new_owner", newOwner, "error", err)
	return err
}

// Snapshot forwards to the wrapped Module if it implements Snapshotter,
// so an Audited simulator still participates in the host's rollback.
func (a *Audited) Snapshot() any {
	if s, ok := a.inner.(Snapshotter); ok {
		return s.Snapshot()
	}
	return nil
}

// Restore forwards to the wrapped Module if it implements Snapshotter.
func (a *Audited) Restore(snapshot any) {
	if s, ok := a.inner.(Snapshotter); ok {
		s.Restore(snapshot)
	}
}
