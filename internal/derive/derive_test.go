package derive

import (
	"testing"

	"github.com/klingon-exchange/duopool/internal/identity"
)

func addr(b byte) identity.Address {
	var a identity.Address
	for i := range a {
		a[i] = b
	}
	return a
}

// TestAddressDeterministic is property T3: the same seeds and programID
// always derive the same address and bump.
func TestAddressDeterministic(t *testing.T) {
	programID := addr(0xA0)
	seeds := EscrowAuthoritySeeds(addr(0x01), addr(0x02), addr(0xB0))

	first, err := Address(programID, seeds...)
	if err != nil {
		t.Fatalf("Address() error = %v", err)
	}
	second, err := Address(programID, seeds...)
	if err != nil {
		t.Fatalf("Address() error = %v", err)
	}
	if first != second {
		t.Fatalf("Address() not deterministic: %+v != %+v", first, second)
	}
}

// TestAddressChangesWithSeeds ensures distinct seed tuples derive distinct
// addresses, guarding against a marker or hashing bug that ignores input.
func TestAddressChangesWithSeeds(t *testing.T) {
	programID := addr(0xA0)

	a, err := Address(programID, EscrowAuthoritySeeds(addr(0x01), addr(0x02), addr(0xB0))...)
	if err != nil {
		t.Fatalf("Address() error = %v", err)
	}
	b, err := Address(programID, EscrowAuthoritySeeds(addr(0x01), addr(0x03), addr(0xB0))...)
	if err != nil {
		t.Fatalf("Address() error = %v", err)
	}
	if a.Address == b.Address {
		t.Fatal("different seeds derived the same address")
	}
}

// TestAddressChangesWithProgramID ensures the program ID is mixed into the
// derivation, not just the seeds.
func TestAddressChangesWithProgramID(t *testing.T) {
	seeds := PoolSeeds(addr(0x01), addr(0x02), addr(0xB0))

	a, err := Address(addr(0xA0), seeds...)
	if err != nil {
		t.Fatalf("Address() error = %v", err)
	}
	b, err := Address(addr(0xA1), seeds...)
	if err != nil {
		t.Fatalf("Address() error = %v", err)
	}
	if a.Address == b.Address {
		t.Fatal("different program IDs derived the same address")
	}
}

// TestVerifyAddressRoundtrip checks VerifyAddress accepts the bump that
// Address actually produced, and rejects any other.
func TestVerifyAddressRoundtrip(t *testing.T) {
	programID := addr(0xA0)
	seeds := EscrowAccountSeeds(addr(0x01), addr(0xB0))

	result, err := Address(programID, seeds...)
	if err != nil {
		t.Fatalf("Address() error = %v", err)
	}
	if err := VerifyAddress(result.Address, result.Bump, programID, seeds...); err != nil {
		t.Fatalf("VerifyAddress() error = %v, want nil", err)
	}

	if result.Bump > 0 {
		if err := VerifyAddress(result.Address, result.Bump-1, programID, seeds...); err == nil {
			t.Fatal("VerifyAddress() accepted a bump other than the canonical one")
		}
	}
}

// TestVerifyAddressRejectsWrongAddress ensures a mismatched address fails
// even with the correct bump.
func TestVerifyAddressRejectsWrongAddress(t *testing.T) {
	programID := addr(0xA0)
	seeds := PoolSeeds(addr(0x01), addr(0x02), addr(0xB0))

	result, err := Address(programID, seeds...)
	if err != nil {
		t.Fatalf("Address() error = %v", err)
	}
	if err := VerifyAddress(addr(0x77), result.Bump, programID, seeds...); err == nil {
		t.Fatal("VerifyAddress() accepted an address that doesn't match the derivation")
	}
}

// TestSeedHelpersDistinctByRole ensures the three seed-building helpers
// never produce the same seed tuple for the same mint/token-module pair,
// since Initialize relies on the pool, escrow-authority, and escrow-account
// addresses all being distinct.
func TestSeedHelpersDistinctByRole(t *testing.T) {
	programID := addr(0xA0)
	longMint, shortMint, tokenModuleID := addr(0x01), addr(0x02), addr(0xB0)

	pool, err := Address(programID, PoolSeeds(longMint, shortMint, tokenModuleID)...)
	if err != nil {
		t.Fatalf("Address(pool) error = %v", err)
	}
	authority, err := Address(programID, EscrowAuthoritySeeds(longMint, shortMint, tokenModuleID)...)
	if err != nil {
		t.Fatalf("Address(authority) error = %v", err)
	}
	longEscrow, err := Address(programID, EscrowAccountSeeds(longMint, tokenModuleID)...)
	if err != nil {
		t.Fatalf("Address(long escrow) error = %v", err)
	}

	if pool.Address == authority.Address || pool.Address == longEscrow.Address || authority.Address == longEscrow.Address {
		t.Fatal("distinct seed roles derived colliding addresses")
	}
}
