package processor

import (
	"github.com/klingon-exchange/duopool/internal/derive"
	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
	"github.com/klingon-exchange/duopool/internal/poolstate"
	"github.com/klingon-exchange/duopool/internal/validation"
)

// InitializeAccounts binds the account roles Initialize requires.
type InitializeAccounts struct {
	Pool      identity.Address
	ProgramID identity.Address

	TokenModuleID identity.Address

	LongEscrowMint  identity.Address
	ShortEscrowMint identity.Address

	LongEscrowAccount  identity.Address
	ShortEscrowAccount identity.Address

	LongMint  identity.Address
	ShortMint identity.Address

	MintAuthority   AccountInfo
	UpdateAuthority AccountInfo
}

// Initialize creates and zero-initializes a Pool, derives and hands over
// ownership of its two escrow accounts, and records the six identities
// that every later instruction validates against.
func (p *Processor) Initialize(accounts InitializeAccounts) (*poolstate.Pool, error) {
	p.log.Info("Instruction: Initialize")

	if err := accounts.MintAuthority.requireSigner(); err != nil {
		return nil, err
	}
	if err := accounts.UpdateAuthority.requireSigner(); err != nil {
		return nil, err
	}

	poolKey, err := derive.Address(accounts.ProgramID, derive.PoolSeeds(accounts.LongMint, accounts.ShortMint, accounts.TokenModuleID)...)
	if err != nil {
		return nil, err
	}
	if poolKey.Address != accounts.Pool {
		return nil, errors.New(errors.InvalidPoolKey)
	}

	for _, m := range []struct {
		addr identity.Address
	}{{accounts.LongMint}, {accounts.ShortMint}} {
		mint, ok := p.tokenModule.GetMint(m.addr)
		if err := validation.AssertInitialized(ok && mint.Initialized); err != nil {
			return nil, err
		}
		if err := validation.AssertOwnedByTokenModule(mint.Owner, accounts.TokenModuleID); err != nil {
			return nil, err
		}
		if err := validation.AssertMintAuthorityMatchesMint(mint, accounts.MintAuthority.Key); err != nil {
			return nil, err
		}
	}

	longEscrowKey, err := derive.Address(accounts.ProgramID, derive.EscrowAccountSeeds(accounts.LongMint, accounts.TokenModuleID)...)
	if err != nil {
		return nil, err
	}
	if longEscrowKey.Address != accounts.LongEscrowAccount {
		return nil, errors.New(errors.InvalidProgramAddress)
	}

	shortEscrowKey, err := derive.Address(accounts.ProgramID, derive.EscrowAccountSeeds(accounts.ShortMint, accounts.TokenModuleID)...)
	if err != nil {
		return nil, err
	}
	if shortEscrowKey.Address != accounts.ShortEscrowAccount {
		return nil, errors.New(errors.InvalidProgramAddress)
	}

	if err := p.tokenModule.InitializeAccount(accounts.LongEscrowAccount, accounts.LongEscrowMint, accounts.UpdateAuthority.Key); err != nil {
		return nil, err
	}
	if err := p.tokenModule.InitializeAccount(accounts.ShortEscrowAccount, accounts.ShortEscrowMint, accounts.UpdateAuthority.Key); err != nil {
		return nil, err
	}

	escrowAuthority, err := derive.Address(accounts.ProgramID, derive.EscrowAuthoritySeeds(accounts.LongMint, accounts.ShortMint, accounts.TokenModuleID)...)
	if err != nil {
		return nil, err
	}
	if err := p.tokenModule.SetAuthority(accounts.LongEscrowAccount, escrowAuthority.Address); err != nil {
		return nil, err
	}
	if err := p.tokenModule.SetAuthority(accounts.ShortEscrowAccount, escrowAuthority.Address); err != nil {
		return nil, err
	}

	return poolstate.New(
		accounts.LongMint, accounts.ShortMint,
		accounts.LongEscrowMint, accounts.ShortEscrowMint,
		accounts.LongEscrowAccount, accounts.ShortEscrowAccount,
	), nil
}
