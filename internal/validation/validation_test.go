package validation

import (
	"testing"

	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
	"github.com/klingon-exchange/duopool/internal/tokenmodule"
)

func addr(b byte) identity.Address {
	var a identity.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func TestAssertInitialized(t *testing.T) {
	if err := AssertInitialized(true); err != nil {
		t.Fatalf("AssertInitialized(true) error = %v", err)
	}
	if code, ok := errors.CodeOf(AssertInitialized(false)); !ok || code != errors.Uninitialized {
		t.Fatalf("AssertInitialized(false) = %v, want Uninitialized", AssertInitialized(false))
	}
}

func TestAssertOwnedBy(t *testing.T) {
	owner := addr(0x01)
	if err := AssertOwnedBy(owner, owner); err != nil {
		t.Fatalf("AssertOwnedBy(matching) error = %v", err)
	}
	if code, ok := errors.CodeOf(AssertOwnedBy(owner, addr(0x02))); !ok || code != errors.IncorrectOwner {
		t.Fatal("AssertOwnedBy(mismatch) should return IncorrectOwner")
	}
}

func TestAssertKeysEqual(t *testing.T) {
	a := addr(0x01)
	if err := AssertKeysEqual(a, a); err != nil {
		t.Fatalf("AssertKeysEqual(equal) error = %v", err)
	}
	if code, ok := errors.CodeOf(AssertKeysEqual(a, addr(0x02))); !ok || code != errors.InvalidAccountKeys {
		t.Fatal("AssertKeysEqual(mismatch) should return InvalidAccountKeys")
	}
}

func TestAssertMintAuthorityMatchesMint(t *testing.T) {
	authority := addr(0x01)
	mint := tokenmodule.Mint{Initialized: true, MintAuthority: authority}
	if err := AssertMintAuthorityMatchesMint(mint, authority); err != nil {
		t.Fatalf("AssertMintAuthorityMatchesMint(matching) error = %v", err)
	}
	if code, ok := errors.CodeOf(AssertMintAuthorityMatchesMint(mint, addr(0x02))); !ok || code != errors.InvalidMintAuthority {
		t.Fatal("AssertMintAuthorityMatchesMint(mismatch) should return InvalidMintAuthority")
	}
}

func TestAssertOwnedByTokenModule(t *testing.T) {
	tm := addr(0x01)
	if err := AssertOwnedByTokenModule(tm, tm); err != nil {
		t.Fatalf("AssertOwnedByTokenModule(matching) error = %v", err)
	}
	if code, ok := errors.CodeOf(AssertOwnedByTokenModule(addr(0x02), tm)); !ok || code != errors.IncorrectTokenProgramId {
		t.Fatal("AssertOwnedByTokenModule(mismatch) should return IncorrectTokenProgramId")
	}
}
