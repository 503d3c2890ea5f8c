package domain

import (
	"math/big"

	"github.com/x-xyz/auction/base/ctx"
)

// AssetRegistry tracks ownership of uniquely owned assets of one collection
type AssetRegistry interface {
	OwnerOf(c ctx.Ctx, tokenId *big.Int) (Address, error)
	IsApproved(c ctx.Ctx, owner, spender Address, tokenId *big.Int) (bool, error)
	TransferAsset(c ctx.Ctx, from, to Address, tokenId *big.Int) error
}

// FungibleRegistry is one fungible payment token
type FungibleRegistry interface {
	Decimals(c ctx.Ctx) (uint8, error)
	BalanceOf(c ctx.Ctx, owner Address) (*big.Int, error)
	Allowance(c ctx.Ctx, owner, spender Address) (*big.Int, error)
	// Transfer sends amount owned by from
	Transfer(c ctx.Ctx, from, to Address, amount *big.Int) error
	// TransferFrom moves amount from payer to recipient using spender's allowance
	TransferFrom(c ctx.Ctx, spender, payer, recipient Address, amount *big.Int) error
}

// NativeBank holds native coin balances
type NativeBank interface {
	BalanceOf(c ctx.Ctx, owner Address) (*big.Int, error)
	Transfer(c ctx.Ctx, from, to Address, amount *big.Int) error
}

// Registries resolves the external registries by address
type Registries interface {
	Asset(c ctx.Ctx, address Address) (AssetRegistry, error)
	Fungible(c ctx.Ctx, address Address) (FungibleRegistry, error)
	Native() NativeBank
}
