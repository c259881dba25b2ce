package processor

import (
	"github.com/klingon-exchange/duopool/internal/errors"
	"github.com/klingon-exchange/duopool/internal/identity"
	"github.com/klingon-exchange/duopool/internal/tokenmodule"
	"github.com/klingon-exchange/duopool/pkg/logging"
)

// AccountInfo is a reference to an account supplied with a transaction,
// together with whether its signature was present. Validation never
// trusts a key's authority without checking Signer first.
type AccountInfo struct {
	Key    identity.Address
	Signer bool
}

// requireSigner fails unless the account's signature was attached to the
// transaction, the precondition for every authority check in this package.
func (a AccountInfo) requireSigner() error {
	if !a.Signer {
		return errors.Newf(errors.InvalidAuthorityAccount, "%s did not sign", a.Key)
	}
	return nil
}

// Processor dispatches the four pool operations against a token-module
// adapter. It holds no state of its own between calls; the Pool buffer and
// account references are supplied fresh on every invocation by the host.
type Processor struct {
	tokenModule tokenmodule.Module
	log         *logging.Logger
}

// New returns a Processor that emits its token-module sub-calls through tm.
func New(tm tokenmodule.Module) *Processor {
	return &Processor{tokenModule: tm, log: logging.GetDefault().Component("processor")}
}
