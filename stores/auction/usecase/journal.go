package usecase

import (
	"math/big"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/domain"
)

type compensation struct {
	desc string
	undo func(c ctx.Ctx) error
}

// journal records how to undo the external effects of an operation
type journal struct {
	entries []compensation
}

func (j *journal) record(desc string, undo func(c ctx.Ctx) error) {
	j.entries = append(j.entries, compensation{desc: desc, undo: undo})
}

// rollback runs every compensation in reverse order and returns the first failure
func (j *journal) rollback(c ctx.Ctx) error {
	var first error
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		if err := e.undo(c); err != nil {
			c.WithFields(log.Fields{"err": err, "step": e.desc}).Error("compensation failed")
			if first == nil {
				first = xerrors.Errorf("undo %s: %w", e.desc, err)
			}
		}
	}
	j.entries = nil
	return first
}

func (j *journal) describe() []string {
	res := make([]string, len(j.entries))
	for i, e := range j.entries {
		res[i] = e.desc
	}
	return res
}

// transferErr keeps economic and authorization failures, everything else is a failed transfer
func transferErr(err error) error {
	switch domain.KindOf(err) {
	case domain.KindEconomic, domain.KindAuthorization:
		return err
	}
	return xerrors.Errorf("%v: %w", err, domain.ErrTransferFailed)
}

func (u *unit) moveAsset(reg domain.AssetRegistry, from, to domain.Address, tokenId *big.Int) error {
	if err := reg.TransferAsset(u.c, from, to, tokenId); err != nil {
		return transferErr(err)
	}
	u.journal.record("asset "+tokenId.String()+" "+from.ToLowerStr()+"->"+to.ToLowerStr(), func(c ctx.Ctx) error {
		return reg.TransferAsset(c, to, from, tokenId)
	})
	return nil
}

func (u *unit) moveNative(from, to domain.Address, amount *big.Int) error {
	bank := u.im.registries.Native()
	if err := bank.Transfer(u.c, from, to, amount); err != nil {
		return transferErr(err)
	}
	u.journal.record("native "+amount.String()+" "+from.ToLowerStr()+"->"+to.ToLowerStr(), func(c ctx.Ctx) error {
		return bank.Transfer(c, to, from, amount)
	})
	return nil
}

func (u *unit) moveToken(reg domain.FungibleRegistry, from, to domain.Address, amount *big.Int) error {
	if err := reg.Transfer(u.c, from, to, amount); err != nil {
		return transferErr(err)
	}
	u.journal.record("token "+amount.String()+" "+from.ToLowerStr()+"->"+to.ToLowerStr(), func(c ctx.Ctx) error {
		return reg.Transfer(c, to, from, amount)
	})
	return nil
}

// pullToken collects amount from payer into engine custody through the engine's allowance
func (u *unit) pullToken(reg domain.FungibleRegistry, payer domain.Address, amount *big.Int) error {
	engine := u.st.EngineAddress
	allowance, err := reg.Allowance(u.c, payer, engine)
	if err != nil {
		return transferErr(err)
	}
	if allowance.Cmp(amount) < 0 {
		return domain.ErrAllowanceInsufficient
	}
	if err := reg.TransferFrom(u.c, engine, payer, engine, amount); err != nil {
		return transferErr(err)
	}
	u.journal.record("token "+amount.String()+" "+payer.ToLowerStr()+"->engine", func(c ctx.Ctx) error {
		return reg.Transfer(c, engine, payer, amount)
	})
	return nil
}

// payout sends amount of paymentToken held by the engine to recipient
func (u *unit) payout(paymentToken, recipient domain.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	engine := u.st.EngineAddress
	if paymentToken.IsNative() {
		return u.moveNative(engine, recipient, amount)
	}
	reg, err := u.im.registries.Fungible(u.c, paymentToken)
	if err != nil {
		return transferErr(err)
	}
	return u.moveToken(reg, engine, recipient, amount)
}
