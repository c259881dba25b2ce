package host

import (
	"testing"

	"github.com/klingon-exchange/duopool/internal/derive"
	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
	"github.com/klingon-exchange/duopool/internal/journal"
	"github.com/klingon-exchange/duopool/internal/processor"
	"github.com/klingon-exchange/duopool/internal/tokenmodule"
)

func addr(b byte) identity.Address {
	var a identity.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func seqAddr(n uint32) identity.Address {
	var a identity.Address
	a[0], a[1], a[2], a[3] = byte(n>>24), byte(n>>16), byte(n>>8), byte(n)
	a[31] = 0xFF
	return a
}

type testRig struct {
	t   *testing.T
	h   *Host
	sim *tokenmodule.Simulator
	j   *journal.Journal

	programID, tokenModuleID identity.Address
	longMint, shortMint      identity.Address
	longEscrowMint           identity.Address
	shortEscrowMint          identity.Address
	mintAuthority            identity.Address
	updateAuthority          identity.Address

	poolAddr        identity.Address
	escrowAuthority identity.Address
	escrowBump      byte

	seq uint32
}

func newRig(t *testing.T) *testRig {
	t.Helper()

	r := &testRig{
		t:               t,
		sim:             tokenmodule.NewSimulator(),
		j:               mustOpenJournal(t),
		programID:       addr(0xA0),
		tokenModuleID:   addr(0xB0),
		longMint:        addr(0x01),
		shortMint:       addr(0x02),
		longEscrowMint:  addr(0x03),
		shortEscrowMint: addr(0x04),
		mintAuthority:   addr(0x05),
		updateAuthority: addr(0x06),
	}

	registry := tokenmodule.NewRegistry()
	registry.Register("simulator", r.sim)

	h, err := New(registry, r.j)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r.h = h

	r.sim.SeedMint(r.longMint, tokenmodule.Mint{Initialized: true, Owner: r.tokenModuleID, MintAuthority: r.mintAuthority})
	r.sim.SeedMint(r.shortMint, tokenmodule.Mint{Initialized: true, Owner: r.tokenModuleID, MintAuthority: r.mintAuthority})

	poolKey, err := derive.Address(r.programID, derive.PoolSeeds(r.longMint, r.shortMint, r.tokenModuleID)...)
	if err != nil {
		t.Fatalf("derive pool key: %v", err)
	}
	longEscrowAcct, err := derive.Address(r.programID, derive.EscrowAccountSeeds(r.longMint, r.tokenModuleID)...)
	if err != nil {
		t.Fatalf("derive long escrow account: %v", err)
	}
	shortEscrowAcct, err := derive.Address(r.programID, derive.EscrowAccountSeeds(r.shortMint, r.tokenModuleID)...)
	if err != nil {
		t.Fatalf("derive short escrow account: %v", err)
	}
	escrowAuth, err := derive.Address(r.programID, derive.EscrowAuthoritySeeds(r.longMint, r.shortMint, r.tokenModuleID)...)
	if err != nil {
		t.Fatalf("derive escrow authority: %v", err)
	}
	r.poolAddr = poolKey.Address
	r.escrowAuthority = escrowAuth.Address
	r.escrowBump = escrowAuth.Bump

	_, err = r.h.SubmitInitialize(r.poolAddr, processor.InitializeAccounts{
		Pool:               r.poolAddr,
		ProgramID:          r.programID,
		TokenModuleID:      r.tokenModuleID,
		LongEscrowMint:     r.longEscrowMint,
		ShortEscrowMint:    r.shortEscrowMint,
		LongEscrowAccount:  longEscrowAcct.Address,
		ShortEscrowAccount: shortEscrowAcct.Address,
		LongMint:           r.longMint,
		ShortMint:          r.shortMint,
		MintAuthority:      processor.AccountInfo{Key: r.mintAuthority, Signer: true},
		UpdateAuthority:    processor.AccountInfo{Key: r.updateAuthority, Signer: true},
	})
	if err != nil {
		t.Fatalf("SubmitInitialize: %v", err)
	}
	return r
}

func mustOpenJournal(t *testing.T) *journal.Journal {
	t.Helper()
	j, err := journal.Open("")
	if err != nil {
		t.Fatalf("journal.Open() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func (r *testRig) party(owner identity.Address, startingCollateral uint64) processor.TradeParty {
	mk := func(mint identity.Address, amount uint64) identity.Address {
		r.seq++
		a := seqAddr(r.seq)
		r.sim.SeedAccount(a, tokenmodule.Account{Initialized: true, Owner: owner, Mint: mint, Amount: amount})
		return a
	}
	return processor.TradeParty{
		Owner:           owner,
		LongToken:       mk(r.longMint, 0),
		ShortToken:      mk(r.shortMint, 0),
		LongCollateral:  mk(r.longEscrowMint, startingCollateral),
		ShortCollateral: mk(r.shortEscrowMint, startingCollateral),
	}
}

func (r *testRig) tradeAccounts(buyer, seller processor.TradeParty) processor.TradeAccounts {
	pool, _ := r.h.Pool(r.poolAddr)
	return processor.TradeAccounts{
		Pool:               r.poolAddr,
		ProgramID:          r.programID,
		TokenModuleID:      r.tokenModuleID,
		LongMint:           r.longMint,
		ShortMint:          r.shortMint,
		LongEscrowMint:     r.longEscrowMint,
		ShortEscrowMint:    r.shortEscrowMint,
		LongEscrowAccount:  pool.LongEscrowAccount,
		ShortEscrowAccount: pool.ShortEscrowAccount,
		EscrowAuthority:    r.escrowAuthority,
		EscrowBump:         r.escrowBump,
		Buyer:              buyer,
		Seller:              seller,
	}
}

func (r *testRig) balance(acct identity.Address) uint64 {
	a, _ := r.sim.GetAccount(acct)
	return a.Amount
}

// TestSubmitTradeCommits verifies a successful Trade updates the pool and
// appends exactly one journal row.
func TestSubmitTradeCommits(t *testing.T) {
	r := newRig(t)
	alice := r.party(addr(0x10), 1000)
	bob := r.party(addr(0x20), 1000)

	pool, err := r.h.SubmitTrade(r.poolAddr, r.tradeAccounts(alice, bob), processor.TradeArgs{Size: 5, BuyPrice: 10, SellPrice: 10})
	if err != nil {
		t.Fatalf("SubmitTrade: %v", err)
	}
	if pool.Circulation != 5 {
		t.Fatalf("circulation = %d, want 5", pool.Circulation)
	}

	n, err := r.j.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Fatalf("journal count = %d, want 1", n)
	}
}

// TestSubmitTradeRollsBackOnFailure is the T1 atomicity property: a Trade
// that fails partway (here, on an overflow check) must leave every token
// balance it touched byte-identical to before the call.
func TestSubmitTradeRollsBackOnFailure(t *testing.T) {
	r := newRig(t)
	alice := r.party(addr(0x10), ^uint64(0))
	bob := r.party(addr(0x20), ^uint64(0))

	aliceLongBefore := r.balance(alice.LongToken)
	bobShortBefore := r.balance(bob.ShortToken)
	aliceCollateralBefore := r.balance(alice.LongCollateral)

	_, err := r.h.SubmitTrade(r.poolAddr, r.tradeAccounts(alice, bob), processor.TradeArgs{Size: 1 << 40, BuyPrice: 1 << 40, SellPrice: 10})
	if code, ok := errors.CodeOf(err); !ok || code != errors.ExpectedAmountMismatch {
		t.Fatalf("err = %v, want ExpectedAmountMismatch", err)
	}

	if r.balance(alice.LongToken) != aliceLongBefore {
		t.Error("alice long balance mutated despite aborted trade")
	}
	if r.balance(bob.ShortToken) != bobShortBefore {
		t.Error("bob short balance mutated despite aborted trade")
	}
	if r.balance(alice.LongCollateral) != aliceCollateralBefore {
		t.Error("alice collateral mutated despite aborted trade")
	}

	pool, _ := r.h.Pool(r.poolAddr)
	if pool.Circulation != 0 {
		t.Fatalf("circulation = %d, want 0 after rollback", pool.Circulation)
	}

	n, err := r.j.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("journal count = %d, want 0 for an aborted instruction", n)
	}
}

// TestSubmitSettleThenCollect drives a full pool lifecycle through the
// host, checking the settle/collect journal entries and the broadcast feed.
func TestSubmitSettleThenCollect(t *testing.T) {
	r := newRig(t)
	alice := r.party(addr(0x10), 1000)
	bob := r.party(addr(0x20), 1000)
	updates := r.h.Subscribe()

	if _, err := r.h.SubmitTrade(r.poolAddr, r.tradeAccounts(alice, bob), processor.TradeArgs{Size: 10, BuyPrice: 10, SellPrice: 10}); err != nil {
		t.Fatalf("SubmitTrade: %v", err)
	}
	if _, err := r.h.SubmitSettle(r.poolAddr, processor.SettleAccounts{WinningMint: r.longMint, UpdateAuthority: processor.AccountInfo{Key: r.mintAuthority, Signer: true}}); err != nil {
		t.Fatalf("SubmitSettle: %v", err)
	}

	pool, _ := r.h.Pool(r.poolAddr)
	if !pool.Settled {
		t.Fatal("pool not settled after SubmitSettle")
	}

	_, err := r.h.SubmitCollect(r.poolAddr, processor.CollectAccounts{
		ProgramID:                r.programID,
		TokenModuleID:            r.tokenModuleID,
		Collector:                alice.Owner,
		CollectorLongToken:       alice.LongToken,
		CollectorShortToken:      alice.ShortToken,
		CollectorLongCollateral:  alice.LongCollateral,
		CollectorShortCollateral: alice.ShortCollateral,
		LongEscrowAccount:        pool.LongEscrowAccount,
		ShortEscrowAccount:       pool.ShortEscrowAccount,
		EscrowAuthority:          r.escrowAuthority,
		EscrowBump:               r.escrowBump,
	})
	if err != nil {
		t.Fatalf("SubmitCollect: %v", err)
	}

	n, err := r.j.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("journal count = %d, want 3 (trade, settle, collect)", n)
	}

	records, err := r.j.ForPool(r.poolAddr)
	if err != nil {
		t.Fatalf("ForPool: %v", err)
	}
	if len(records) != 3 || records[0].Kind != journal.KindTrade || records[1].Kind != journal.KindSettle || records[2].Kind != journal.KindCollect {
		t.Fatalf("unexpected journal sequence: %+v", records)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-updates:
		default:
			t.Fatalf("expected a broadcast update for instruction %d", i)
		}
	}
}

// TestSubmitTradeUnknownPoolFails exercises the not-found path for a pool
// address the host has never initialized.
func TestSubmitTradeUnknownPoolFails(t *testing.T) {
	r := newRig(t)
	alice := r.party(addr(0x10), 1000)
	bob := r.party(addr(0x20), 1000)

	_, err := r.h.SubmitTrade(addr(0xEE), r.tradeAccounts(alice, bob), processor.TradeArgs{Size: 1, BuyPrice: 1, SellPrice: 1})
	if code, ok := errors.CodeOf(err); !ok || code != errors.ExpectedAccount {
		t.Fatalf("err = %v, want ExpectedAccount", err)
	}
}

// TestSubmitInitializeTwiceFails: re-initializing an existing pool address
// is rejected before ever reaching the processor.
func TestSubmitInitializeTwiceFails(t *testing.T) {
	r := newRig(t)

	_, err := r.h.SubmitInitialize(r.poolAddr, processor.InitializeAccounts{
		Pool:            r.poolAddr,
		ProgramID:       r.programID,
		TokenModuleID:   r.tokenModuleID,
		LongMint:        r.longMint,
		ShortMint:       r.shortMint,
		MintAuthority:   processor.AccountInfo{Key: r.mintAuthority, Signer: true},
		UpdateAuthority: processor.AccountInfo{Key: r.updateAuthority, Signer: true},
	})
	if code, ok := errors.CodeOf(err); !ok || code != errors.AlreadyInUse {
		t.Fatalf("err = %v, want AlreadyInUse", err)
	}
}
