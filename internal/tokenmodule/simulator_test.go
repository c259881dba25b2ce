package tokenmodule

import (
	"testing"

	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
)

func addr(b byte) identity.Address {
	var a identity.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func TestMintToAndBurn(t *testing.T) {
	s := NewSimulator()
	mint := addr(0x01)
	acct := addr(0x02)
	s.SeedAccount(acct, Account{Initialized: true, Owner: addr(0x03), Mint: mint})

	if err := s.MintTo(mint, acct, 10); err != nil {
		t.Fatalf("MintTo() error = %v", err)
	}
	got, _ := s.GetAccount(acct)
	if got.Amount != 10 {
		t.Fatalf("balance = %d, want 10", got.Amount)
	}

	if err := s.Burn(mint, acct, 4); err != nil {
		t.Fatalf("Burn() error = %v", err)
	}
	got, _ = s.GetAccount(acct)
	if got.Amount != 6 {
		t.Fatalf("balance = %d, want 6", got.Amount)
	}
}

func TestBurnInsufficientFunds(t *testing.T) {
	s := NewSimulator()
	mint := addr(0x01)
	acct := addr(0x02)
	s.SeedAccount(acct, Account{Initialized: true, Owner: addr(0x03), Mint: mint, Amount: 2})

	err := s.Burn(mint, acct, 5)
	if code, ok := errors.CodeOf(err); !ok || code != errors.InsufficientFunds {
		t.Fatalf("err = %v, want InsufficientFunds", err)
	}
}

func TestTransferWrongMintRejected(t *testing.T) {
	s := NewSimulator()
	src := addr(0x02)
	dest := addr(0x03)
	s.SeedAccount(src, Account{Initialized: true, Owner: addr(0x04), Mint: addr(0x01), Amount: 10})
	s.SeedAccount(dest, Account{Initialized: true, Owner: addr(0x04), Mint: addr(0x05)})

	err := s.Transfer(src, dest, 1)
	if code, ok := errors.CodeOf(err); !ok || code != errors.InvalidMints {
		t.Fatalf("err = %v, want InvalidMints", err)
	}
}

func TestTransferSignedRequiresMatchingAuthority(t *testing.T) {
	s := NewSimulator()
	src := addr(0x02)
	dest := addr(0x03)
	mint := addr(0x01)
	authority := addr(0x06)
	s.SeedAccount(src, Account{Initialized: true, Owner: authority, Mint: mint, Amount: 10})
	s.SeedAccount(dest, Account{Initialized: true, Owner: addr(0x04), Mint: mint})

	if err := s.TransferSigned(src, dest, addr(0x99), 1, nil, 0, addr(0xA0)); err == nil {
		t.Fatal("TransferSigned() with wrong authority should fail")
	}
	if err := s.TransferSigned(src, dest, authority, 1, nil, 0, addr(0xA0)); err != nil {
		t.Fatalf("TransferSigned() with correct authority error = %v", err)
	}
	got, _ := s.GetAccount(dest)
	if got.Amount != 1 {
		t.Fatalf("dest balance = %d, want 1", got.Amount)
	}
}

func TestInitializeAccountRejectsDuplicate(t *testing.T) {
	s := NewSimulator()
	acct := addr(0x02)
	if err := s.InitializeAccount(acct, addr(0x01), addr(0x03)); err != nil {
		t.Fatalf("InitializeAccount() error = %v", err)
	}
	err := s.InitializeAccount(acct, addr(0x01), addr(0x03))
	if code, ok := errors.CodeOf(err); !ok || code != errors.AlreadyInUse {
		t.Fatalf("err = %v, want AlreadyInUse", err)
	}
}

func TestSetAuthority(t *testing.T) {
	s := NewSimulator()
	acct := addr(0x02)
	s.SeedAccount(acct, Account{Initialized: true, Owner: addr(0x03), Mint: addr(0x01)})

	if err := s.SetAuthority(acct, addr(0x04)); err != nil {
		t.Fatalf("SetAuthority() error = %v", err)
	}
	got, _ := s.GetAccount(acct)
	if got.Owner != addr(0x04) {
		t.Fatalf("owner = %v, want %v", got.Owner, addr(0x04))
	}
}

// TestSnapshotRestore is the basis of the host's T1 atomicity guarantee:
// restoring a snapshot must undo every mutation made since it was taken.
func TestSnapshotRestore(t *testing.T) {
	s := NewSimulator()
	mint := addr(0x01)
	acct := addr(0x02)
	s.SeedAccount(acct, Account{Initialized: true, Owner: addr(0x03), Mint: mint, Amount: 100})

	snap := s.Snapshot()

	if err := s.Burn(mint, acct, 50); err != nil {
		t.Fatalf("Burn() error = %v", err)
	}
	other := addr(0x09)
	if err := s.InitializeAccount(other, mint, addr(0x03)); err != nil {
		t.Fatalf("InitializeAccount() error = %v", err)
	}

	s.Restore(snap)

	got, ok := s.GetAccount(acct)
	if !ok || got.Amount != 100 {
		t.Fatalf("account after restore = %+v, ok=%v, want amount 100", got, ok)
	}
	if _, ok := s.GetAccount(other); ok {
		t.Fatal("account created after the snapshot should not survive Restore")
	}
}
