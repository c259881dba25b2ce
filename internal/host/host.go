// Package host is the in-process transaction-execution host: it owns the
// pool buffers and the token module, dispatches one instruction at a time
// to the processor, and commits or discards the resulting writes as a
// whole, standing in for the out-of-scope consensus/runtime layer.
package host

import (
	"sync"
	"time"

	"github.com/klingon-exchange/duopool/internal/config"
	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
	"github.com/klingon-exchange/duopool/internal/journal"
	"github.com/klingon-exchange/duopool/internal/poolstate"
	"github.com/klingon-exchange/duopool/internal/processor"
	"github.com/klingon-exchange/duopool/internal/tokenmodule"
	"github.com/klingon-exchange/duopool/pkg/helpers"
	"github.com/klingon-exchange/duopool/pkg/logging"
)

// PoolUpdate is broadcast to subscribers whenever the host commits a
// mutating instruction against a pool.
type PoolUpdate struct {
	Pool        identity.Address
	Circulation uint64
	Settled     bool
}

// Host serializes Submit calls behind a single mutex, matching the core's
// assumption of one instruction in flight at a time. Concurrent callers
// (the RPC and WebSocket front end) may run arbitrarily concurrent
// goroutines around that serialized core.
type Host struct {
	mu sync.Mutex

	pools     map[identity.Address]*poolstate.Pool
	registry  *tokenmodule.Registry
	processor *processor.Processor
	journal   *journal.Journal
	log       *logging.Logger

	subscribers []chan PoolUpdate
}

// New returns a Host whose processor drives the active module in registry,
// with committed instructions recorded to j.
func New(registry *tokenmodule.Registry, j *journal.Journal) (*Host, error) {
	tm, ok := registry.Active()
	if !ok {
		return nil, errors.Newf(errors.InvalidAccountKeys, "host: no active token module registered")
	}
	return &Host{
		pools:     make(map[identity.Address]*poolstate.Pool),
		registry:  registry,
		processor: processor.New(tm),
		journal:   j,
		log:       logging.GetDefault().Component("host"),
	}, nil
}

// Subscribe registers a channel that receives a PoolUpdate after every
// committed mutating instruction. The channel is never closed by Host;
// callers should stop reading once they no longer need updates.
func (h *Host) Subscribe() <-chan PoolUpdate {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan PoolUpdate, 16)
	h.subscribers = append(h.subscribers, ch)
	return ch
}

func (h *Host) broadcast(update PoolUpdate) {
	for _, ch := range h.subscribers {
		select {
		case ch <- update:
		default:
		}
	}
}

// Pool returns the current state of the named pool, if known.
func (h *Host) Pool(addr identity.Address) (*poolstate.Pool, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pools[addr]
	if !ok {
		return nil, false
	}
	copy := *p
	return &copy, true
}

// snapshot captures enough state to undo everything a single Submit call
// might do: the token module's tables (if it supports Snapshotter) and a
// value copy of the named pool's current contents, if it already exists.
type snapshot struct {
	tokenModule any
	pool        *poolstate.Pool
	poolExisted bool
}

func (h *Host) snapshotFor(addr identity.Address) snapshot {
	snap := snapshot{}
	if tm, ok := h.registry.Active(); ok {
		if s, ok := tm.(tokenmodule.Snapshotter); ok {
			snap.tokenModule = s.Snapshot()
		}
	}
	if p, ok := h.pools[addr]; ok {
		copy := *p
		snap.pool = &copy
		snap.poolExisted = true
	}
	return snap
}

func (h *Host) restore(addr identity.Address, snap snapshot) {
	if tm, ok := h.registry.Active(); ok {
		if s, ok := tm.(tokenmodule.Snapshotter); ok && snap.tokenModule != nil {
			s.Restore(snap.tokenModule)
		}
	}
	if snap.poolExisted {
		h.pools[addr] = snap.pool
	} else {
		delete(h.pools, addr)
	}
}

// SubmitInitialize creates a new pool identified by poolAddr. Fails with
// InvalidPoolKey if poolAddr differs from accounts.Pool or (via the
// processor) does not match the supplied derivation inputs, and fails if a
// pool already exists at that address.
func (h *Host) SubmitInitialize(poolAddr identity.Address, accounts processor.InitializeAccounts) (*poolstate.Pool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if accounts.Pool != poolAddr {
		return nil, errors.Newf(errors.InvalidPoolKey, "pool %s does not match account-list pool %s", poolAddr, accounts.Pool)
	}
	if _, exists := h.pools[poolAddr]; exists {
		return nil, errors.Newf(errors.AlreadyInUse, "pool %s already initialized", poolAddr)
	}

	snap := h.snapshotFor(poolAddr)
	pool, err := h.processor.Initialize(accounts)
	if err != nil {
		h.restore(poolAddr, snap)
		return nil, err
	}
	h.pools[poolAddr] = pool

	h.log.Info("committed instruction", "kind", "initialize", "pool", poolAddr)
	h.broadcast(PoolUpdate{Pool: poolAddr, Circulation: pool.Circulation, Settled: pool.Settled})
	return pool, nil
}

// SubmitTrade dispatches a Trade instruction against the named pool.
func (h *Host) SubmitTrade(poolAddr identity.Address, accounts processor.TradeAccounts, args processor.TradeArgs) (*poolstate.Pool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	pool, ok := h.pools[poolAddr]
	if !ok {
		return nil, errors.Newf(errors.ExpectedAccount, "pool %s not found", poolAddr)
	}

	snap := h.snapshotFor(poolAddr)
	if err := h.processor.Trade(pool, accounts, args); err != nil {
		h.restore(poolAddr, snap)
		return nil, err
	}

	if err := h.journal.Append(journal.Record{
		Pool:      poolAddr,
		Kind:      journal.KindTrade,
		Primary:   accounts.Buyer.Owner,
		Secondary: accounts.Seller.Owner,
		Amount:    args.Size,
		Timestamp: h.now(),
	}); err != nil {
		h.log.Error("journal append failed", "error", err)
	}

	h.log.Info("committed instruction", "kind", "trade", "pool", poolAddr,
		"size", helpers.FormatAmount(args.Size, config.OutcomeTokenDecimals))
	h.broadcast(PoolUpdate{Pool: poolAddr, Circulation: pool.Circulation, Settled: pool.Settled})
	return pool, nil
}

// SubmitSettle dispatches a Settle instruction against the named pool.
func (h *Host) SubmitSettle(poolAddr identity.Address, accounts processor.SettleAccounts) (*poolstate.Pool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	pool, ok := h.pools[poolAddr]
	if !ok {
		return nil, errors.Newf(errors.ExpectedAccount, "pool %s not found", poolAddr)
	}

	snap := h.snapshotFor(poolAddr)
	if err := h.processor.Settle(pool, accounts); err != nil {
		h.restore(poolAddr, snap)
		return nil, err
	}

	if err := h.journal.Append(journal.Record{
		Pool:      poolAddr,
		Kind:      journal.KindSettle,
		Primary:   accounts.UpdateAuthority.Key,
		Secondary: identity.Zero,
		Amount:    0,
		Timestamp: h.now(),
	}); err != nil {
		h.log.Error("journal append failed", "error", err)
	}

	h.log.Info("committed instruction", "kind", "settle", "pool", poolAddr, "winner", accounts.WinningMint)
	h.broadcast(PoolUpdate{Pool: poolAddr, Circulation: pool.Circulation, Settled: pool.Settled})
	return pool, nil
}

// SubmitCollect dispatches a Collect instruction against the named pool.
func (h *Host) SubmitCollect(poolAddr identity.Address, accounts processor.CollectAccounts) (*poolstate.Pool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	pool, ok := h.pools[poolAddr]
	if !ok {
		return nil, errors.Newf(errors.ExpectedAccount, "pool %s not found", poolAddr)
	}

	circulationBefore := pool.Circulation
	snap := h.snapshotFor(poolAddr)
	if err := h.processor.Collect(pool, accounts); err != nil {
		h.restore(poolAddr, snap)
		return nil, err
	}
	reward := circulationBefore - pool.Circulation

	if err := h.journal.Append(journal.Record{
		Pool:      poolAddr,
		Kind:      journal.KindCollect,
		Primary:   accounts.Collector,
		Secondary: identity.Zero,
		Amount:    reward,
		Timestamp: h.now(),
	}); err != nil {
		h.log.Error("journal append failed", "error", err)
	}

	h.log.Info("committed instruction", "kind", "collect", "pool", poolAddr, "collector", accounts.Collector,
		"reward", helpers.FormatAmount(reward, config.OutcomeTokenDecimals))
	h.broadcast(PoolUpdate{Pool: poolAddr, Circulation: pool.Circulation, Settled: pool.Settled})
	return pool, nil
}

// now is a seam so tests can avoid depending on wall-clock time ordering;
// production code always uses the current time.
var nowOverride func() time.Time

func (h *Host) now() time.Time {
	if nowOverride != nil {
		return nowOverride()
	}
	return time.Now()
}
