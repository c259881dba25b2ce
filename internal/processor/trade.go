package processor

import (
	"github.com/klingon-exchange/duopool/internal/derive"
	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
	"github.com/klingon-exchange/duopool/internal/poolstate"
	"github.com/klingon-exchange/duopool/internal/validation"
)

// TradeParty binds one counterparty's four outcome/collateral accounts.
type TradeParty struct {
	Owner identity.Address

	LongToken  identity.Address
	ShortToken identity.Address

	LongCollateral  identity.Address
	ShortCollateral identity.Address
}

// TradeAccounts binds the account roles Trade requires. The six pool-key
// fields are supplied explicitly and checked against the loaded Pool's
// recorded identities even though they are logically redundant, mirroring
// the way a real account-validated program trusts nothing it is handed.
type TradeAccounts struct {
	Pool      identity.Address
	ProgramID identity.Address

	TokenModuleID identity.Address

	LongMint  identity.Address
	ShortMint identity.Address

	LongEscrowMint  identity.Address
	ShortEscrowMint identity.Address

	LongEscrowAccount  identity.Address
	ShortEscrowAccount identity.Address

	EscrowAuthority identity.Address
	EscrowBump      byte

	Buyer  TradeParty
	Seller TradeParty
}

// Trade executes a single buyer/seller netting trade against pool,
// mutating pool.Circulation and issuing whatever mint/burn/transfer
// sub-calls the discriminated regime requires. pool is not re-serialized
// by the caller until every sub-call below has returned successfully.
func (p *Processor) Trade(pool *poolstate.Pool, accounts TradeAccounts, args TradeArgs) error {
	p.log.Info("Instruction: Trade")

	if pool.Settled {
		return errors.New(errors.AlreadySettled)
	}
	if err := p.validateTradeAccounts(pool, accounts); err != nil {
		return err
	}

	buyerShort, ok := p.tokenModule.GetAccount(accounts.Buyer.ShortToken)
	if err := validation.AssertInitialized(ok && buyerShort.Initialized); err != nil {
		return err
	}
	sellerLong, ok := p.tokenModule.GetAccount(accounts.Seller.LongToken)
	if err := validation.AssertInitialized(ok && sellerLong.Initialized); err != nil {
		return err
	}

	n := args.Size
	nb := buyerShort.Amount
	ns := sellerLong.Amount

	buyerClosed := min(nb, n)
	sellerClosed := min(ns, n)
	buyerOpen, err := checkedSub(n, buyerClosed)
	if err != nil {
		return err
	}
	sellerOpen, err := checkedSub(n, sellerClosed)
	if err != nil {
		return err
	}

	tm := p.tokenModule

	if buyerClosed > 0 {
		if err := tm.Burn(accounts.ShortMint, accounts.Buyer.ShortToken, buyerClosed); err != nil {
			return err
		}
	}
	if sellerClosed > 0 {
		// Always burns against the long mint: the seller's position being
		// closed is always a long-token position, regardless of regime.
		if err := tm.Burn(accounts.LongMint, accounts.Seller.LongToken, sellerClosed); err != nil {
			return err
		}
	}
	if buyerOpen > 0 {
		if err := tm.MintTo(accounts.LongMint, accounts.Buyer.LongToken, buyerOpen); err != nil {
			return err
		}
	}
	if sellerOpen > 0 {
		// Newly opened short exposure always lands in the seller's own
		// short-token account, never the buyer's.
		if err := tm.MintTo(accounts.ShortMint, accounts.Seller.ShortToken, sellerOpen); err != nil {
			return err
		}
	}

	releaseToBuyer, err := checkedMul(buyerClosed, args.BuyPrice)
	if err != nil {
		return err
	}
	if releaseToBuyer > 0 {
		if err := tm.TransferSigned(accounts.ShortEscrowAccount, accounts.Buyer.ShortCollateral, accounts.EscrowAuthority, releaseToBuyer, escrowSeeds(accounts), accounts.EscrowBump, accounts.ProgramID); err != nil {
			return err
		}
	}

	releaseToSeller, err := checkedMul(sellerClosed, args.SellPrice)
	if err != nil {
		return err
	}
	if releaseToSeller > 0 {
		if err := tm.TransferSigned(accounts.LongEscrowAccount, accounts.Seller.LongCollateral, accounts.EscrowAuthority, releaseToSeller, escrowSeeds(accounts), accounts.EscrowBump, accounts.ProgramID); err != nil {
			return err
		}
	}

	depositFromBuyer, err := checkedMul(buyerOpen, args.BuyPrice)
	if err != nil {
		return err
	}
	if depositFromBuyer > 0 {
		if err := tm.Transfer(accounts.Buyer.LongCollateral, accounts.LongEscrowAccount, depositFromBuyer); err != nil {
			return err
		}
	}

	depositFromSeller, err := checkedMul(sellerOpen, args.SellPrice)
	if err != nil {
		return err
	}
	if depositFromSeller > 0 {
		if err := tm.Transfer(accounts.Seller.ShortCollateral, accounts.ShortEscrowAccount, depositFromSeller); err != nil {
			return err
		}
	}

	// Net circulation change: new long supply minus burned long supply,
	// which by construction always equals new short supply minus burned
	// short supply, preserving long_supply == short_supply == circulation.
	if buyerOpen >= sellerClosed {
		return pool.IncrementSupply(buyerOpen - sellerClosed)
	}
	return pool.DecrementSupply(sellerClosed - buyerOpen)
}

func escrowSeeds(accounts TradeAccounts) [][]byte {
	return derive.EscrowAuthoritySeeds(accounts.LongMint, accounts.ShortMint, accounts.TokenModuleID)
}

func (p *Processor) validateTradeAccounts(pool *poolstate.Pool, accounts TradeAccounts) error {
	if err := validation.AssertKeysEqual(accounts.LongMint, pool.LongMint); err != nil {
		return err
	}
	if err := validation.AssertKeysEqual(accounts.ShortMint, pool.ShortMint); err != nil {
		return err
	}
	if err := validation.AssertKeysEqual(accounts.LongEscrowMint, pool.LongEscrowMint); err != nil {
		return err
	}
	if err := validation.AssertKeysEqual(accounts.ShortEscrowMint, pool.ShortEscrowMint); err != nil {
		return err
	}
	if err := validation.AssertKeysEqual(accounts.LongEscrowAccount, pool.LongEscrowAccount); err != nil {
		return err
	}
	if err := validation.AssertKeysEqual(accounts.ShortEscrowAccount, pool.ShortEscrowAccount); err != nil {
		return err
	}

	if err := derive.VerifyAddress(accounts.EscrowAuthority, accounts.EscrowBump, accounts.ProgramID, escrowSeeds(accounts)...); err != nil {
		return err
	}

	for _, mintAddr := range []identity.Address{accounts.LongMint, accounts.ShortMint} {
		mint, ok := p.tokenModule.GetMint(mintAddr)
		if err := validation.AssertInitialized(ok && mint.Initialized); err != nil {
			return err
		}
		if err := validation.AssertOwnedByTokenModule(mint.Owner, accounts.TokenModuleID); err != nil {
			return err
		}
	}
	longMint, _ := p.tokenModule.GetMint(accounts.LongMint)
	shortMint, _ := p.tokenModule.GetMint(accounts.ShortMint)
	if longMint.MintAuthority != shortMint.MintAuthority {
		return errors.New(errors.InvalidMintAuthority)
	}

	for _, party := range []TradeParty{accounts.Buyer, accounts.Seller} {
		if err := p.checkOutcomeAccount(party.LongToken, party.Owner, accounts.LongMint); err != nil {
			return err
		}
		if err := p.checkOutcomeAccount(party.ShortToken, party.Owner, accounts.ShortMint); err != nil {
			return err
		}
		if err := p.checkCollateralAccount(party.LongCollateral, party.Owner, accounts.LongEscrowMint); err != nil {
			return err
		}
		if err := p.checkCollateralAccount(party.ShortCollateral, party.Owner, accounts.ShortEscrowMint); err != nil {
			return err
		}
	}

	return nil
}

// checkOutcomeAccount asserts a long/short outcome-token account is
// initialized, owned by owner, and of the expected mint.
func (p *Processor) checkOutcomeAccount(addr, owner, wantMint identity.Address) error {
	acct, ok := p.tokenModule.GetAccount(addr)
	if err := validation.AssertInitialized(ok && acct.Initialized); err != nil {
		return err
	}
	if err := validation.AssertOwnedBy(acct.Owner, owner); err != nil {
		return err
	}
	if acct.Mint != wantMint {
		return errors.New(errors.InvalidMints)
	}
	return nil
}

// checkCollateralAccount asserts a collateral account is initialized,
// owned by owner, and denominated in the escrow-mint the position it
// funds actually uses. Catches a party supplying collateral in the wrong
// currency before any token sub-call issues.
func (p *Processor) checkCollateralAccount(addr, owner, wantEscrowMint identity.Address) error {
	acct, ok := p.tokenModule.GetAccount(addr)
	if err := validation.AssertInitialized(ok && acct.Initialized); err != nil {
		return err
	}
	if err := validation.AssertOwnedBy(acct.Owner, owner); err != nil {
		return err
	}
	if acct.Mint != wantEscrowMint {
		return errors.New(errors.DifferentCollateralUsed)
	}
	return nil
}
