// Package ledger keeps asset ownership, token balances and native coin
// balances in memory. It backs the engine in tests and local runs.
package ledger

import (
	"errors"
	"math/big"
	"sync"

	"golang.org/x/xerrors"

	"github.com/x-xyz/auction/base/ctx"
	"github.com/x-xyz/auction/base/log"
	"github.com/x-xyz/auction/domain"
)

var (
	ErrUnknownRegistry = errors.New("unknown registry")
	ErrInjected        = errors.New("injected transfer failure")
)

type Op string

const (
	OpAssetTransfer    Op = "assetTransfer"
	OpFungibleTransfer Op = "fungibleTransfer"
	OpNativeTransfer   Op = "nativeTransfer"
)

// Transfer describes one applied movement, Amount is nil for assets
type Transfer struct {
	Op       Op
	Registry domain.Address
	From     domain.Address
	To       domain.Address
	TokenId  *big.Int
	Amount   *big.Int
}

// Hook runs after a transfer is applied and the ledger lock is released, so
// it may call back into the engine.
type Hook func(c ctx.Ctx, t Transfer)

// Failure makes the next Times transfers matching Op, From and To fail.
// Empty addresses match anything.
type Failure struct {
	Op    Op
	From  domain.Address
	To    domain.Address
	Times int
}

type Ledger struct {
	mu          sync.Mutex
	native      map[domain.Address]*big.Int
	tokens      map[domain.Address]*token
	collections map[domain.Address]*collection
	hook        Hook
	failures    []*Failure
}

type token struct {
	decimals  uint8
	balances  map[domain.Address]*big.Int
	allowance map[domain.Address]map[domain.Address]*big.Int
}

type collection struct {
	owners    map[string]domain.Address
	approved  map[string]domain.Address
	operators map[domain.Address]map[domain.Address]bool
}

func New() *Ledger {
	return &Ledger{
		native:      map[domain.Address]*big.Int{},
		tokens:      map[domain.Address]*token{},
		collections: map[domain.Address]*collection{},
	}
}

func key(a domain.Address) domain.Address {
	return a.ToLower()
}

func balanceOf(m map[domain.Address]*big.Int, owner domain.Address) *big.Int {
	if b, ok := m[key(owner)]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func move(m map[domain.Address]*big.Int, from, to domain.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return domain.ErrBadParamInput
	}
	fb := balanceOf(m, from)
	if fb.Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	m[key(from)] = fb.Sub(fb, amount)
	tb := balanceOf(m, to)
	m[key(to)] = tb.Add(tb, amount)
	return nil
}

// SetHook installs h, nil removes it
func (l *Ledger) SetHook(h Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hook = h
}

func (l *Ledger) InjectFailure(f Failure) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f.Times <= 0 {
		f.Times = 1
	}
	l.failures = append(l.failures, &f)
}

// ClearFailures drops every pending injected failure
func (l *Ledger) ClearFailures() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = nil
}

// injected must be called with the lock held
func (l *Ledger) injected(op Op, from, to domain.Address) bool {
	for i, f := range l.failures {
		if f.Op != op {
			continue
		}
		if !f.From.IsEmpty() && !f.From.Equals(from) {
			continue
		}
		if !f.To.IsEmpty() && !f.To.Equals(to) {
			continue
		}
		f.Times--
		if f.Times == 0 {
			l.failures = append(l.failures[:i], l.failures[i+1:]...)
		}
		return true
	}
	return false
}

func (l *Ledger) applied(c ctx.Ctx, t Transfer) {
	l.mu.Lock()
	h := l.hook
	l.mu.Unlock()
	if h != nil {
		h(c, t)
	}
}

// Deposit credits native coin, it stands in for funding an account
func (l *Ledger) Deposit(owner domain.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := balanceOf(l.native, owner)
	l.native[key(owner)] = b.Add(b, amount)
}

func (l *Ledger) NativeBalance(owner domain.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return balanceOf(l.native, owner)
}

// AddToken registers a fungible token
func (l *Ledger) AddToken(address domain.Address, decimals uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[key(address)] = &token{
		decimals:  decimals,
		balances:  map[domain.Address]*big.Int{},
		allowance: map[domain.Address]map[domain.Address]*big.Int{},
	}
}

func (l *Ledger) Mint(tokenAddr, owner domain.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tokens[key(tokenAddr)]
	if !ok {
		return ErrUnknownRegistry
	}
	b := balanceOf(t.balances, owner)
	t.balances[key(owner)] = b.Add(b, amount)
	return nil
}

// Approve sets the allowance spender may pull from owner
func (l *Ledger) Approve(tokenAddr, owner, spender domain.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tokens[key(tokenAddr)]
	if !ok {
		return ErrUnknownRegistry
	}
	if t.allowance[key(owner)] == nil {
		t.allowance[key(owner)] = map[domain.Address]*big.Int{}
	}
	t.allowance[key(owner)][key(spender)] = new(big.Int).Set(amount)
	return nil
}

func (l *Ledger) TokenBalance(tokenAddr, owner domain.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tokens[key(tokenAddr)]
	if !ok {
		return new(big.Int)
	}
	return balanceOf(t.balances, owner)
}

// AddCollection registers a collection of uniquely owned assets
func (l *Ledger) AddCollection(address domain.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.collections[key(address)] = &collection{
		owners:    map[string]domain.Address{},
		approved:  map[string]domain.Address{},
		operators: map[domain.Address]map[domain.Address]bool{},
	}
}

func (l *Ledger) MintAsset(collectionAddr domain.Address, tokenId *big.Int, owner domain.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	col, ok := l.collections[key(collectionAddr)]
	if !ok {
		return ErrUnknownRegistry
	}
	if _, ok := col.owners[tokenId.String()]; ok {
		return domain.ErrBadParamInput
	}
	col.owners[tokenId.String()] = owner
	return nil
}

// ApproveAsset lets spender move one asset of owner
func (l *Ledger) ApproveAsset(collectionAddr domain.Address, tokenId *big.Int, spender domain.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	col, ok := l.collections[key(collectionAddr)]
	if !ok {
		return ErrUnknownRegistry
	}
	col.approved[tokenId.String()] = spender
	return nil
}

// SetApprovalForAll lets operator move every asset of owner
func (l *Ledger) SetApprovalForAll(collectionAddr, owner, operator domain.Address, approved bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	col, ok := l.collections[key(collectionAddr)]
	if !ok {
		return ErrUnknownRegistry
	}
	if col.operators[key(owner)] == nil {
		col.operators[key(owner)] = map[domain.Address]bool{}
	}
	col.operators[key(owner)][key(operator)] = approved
	return nil
}

// Registries

func (l *Ledger) Asset(c ctx.Ctx, address domain.Address) (domain.AssetRegistry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.collections[key(address)]; !ok {
		c.WithField("address", address).Warn("unknown collection")
		return nil, xerrors.Errorf("collection %s: %w", address, ErrUnknownRegistry)
	}
	return &assetRegistry{l: l, address: key(address)}, nil
}

func (l *Ledger) Fungible(c ctx.Ctx, address domain.Address) (domain.FungibleRegistry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.tokens[key(address)]; !ok {
		c.WithField("address", address).Warn("unknown token")
		return nil, xerrors.Errorf("token %s: %w", address, ErrUnknownRegistry)
	}
	return &fungibleRegistry{l: l, address: key(address)}, nil
}

func (l *Ledger) Native() domain.NativeBank {
	return &nativeBank{l: l}
}

type nativeBank struct {
	l *Ledger
}

func (n *nativeBank) BalanceOf(c ctx.Ctx, owner domain.Address) (*big.Int, error) {
	return n.l.NativeBalance(owner), nil
}

func (n *nativeBank) Transfer(c ctx.Ctx, from, to domain.Address, amount *big.Int) error {
	l := n.l
	l.mu.Lock()
	if l.injected(OpNativeTransfer, from, to) {
		l.mu.Unlock()
		return ErrInjected
	}
	err := move(l.native, from, to, amount)
	l.mu.Unlock()
	if err != nil {
		c.WithFields(log.Fields{"err": err, "from": from, "to": to, "amount": amount.String()}).Warn("native transfer rejected")
		return err
	}
	l.applied(c, Transfer{Op: OpNativeTransfer, Registry: domain.NativeAsset, From: from, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

type fungibleRegistry struct {
	l       *Ledger
	address domain.Address
}

func (f *fungibleRegistry) token() *token {
	return f.l.tokens[f.address]
}

func (f *fungibleRegistry) Decimals(c ctx.Ctx) (uint8, error) {
	f.l.mu.Lock()
	defer f.l.mu.Unlock()
	return f.token().decimals, nil
}

func (f *fungibleRegistry) BalanceOf(c ctx.Ctx, owner domain.Address) (*big.Int, error) {
	f.l.mu.Lock()
	defer f.l.mu.Unlock()
	return balanceOf(f.token().balances, owner), nil
}

func (f *fungibleRegistry) Allowance(c ctx.Ctx, owner, spender domain.Address) (*big.Int, error) {
	f.l.mu.Lock()
	defer f.l.mu.Unlock()
	return balanceOf(f.token().allowance[key(owner)], spender), nil
}

func (f *fungibleRegistry) Transfer(c ctx.Ctx, from, to domain.Address, amount *big.Int) error {
	l := f.l
	l.mu.Lock()
	if l.injected(OpFungibleTransfer, from, to) {
		l.mu.Unlock()
		return ErrInjected
	}
	err := move(f.token().balances, from, to, amount)
	l.mu.Unlock()
	if err != nil {
		c.WithFields(log.Fields{"err": err, "token": f.address, "from": from, "to": to}).Warn("token transfer rejected")
		return err
	}
	l.applied(c, Transfer{Op: OpFungibleTransfer, Registry: f.address, From: from, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

func (f *fungibleRegistry) TransferFrom(c ctx.Ctx, spender, payer, recipient domain.Address, amount *big.Int) error {
	l := f.l
	l.mu.Lock()
	if l.injected(OpFungibleTransfer, payer, recipient) {
		l.mu.Unlock()
		return ErrInjected
	}
	t := f.token()
	allowed := balanceOf(t.allowance[key(payer)], spender)
	if allowed.Cmp(amount) < 0 {
		l.mu.Unlock()
		return domain.ErrAllowanceInsufficient
	}
	if err := move(t.balances, payer, recipient, amount); err != nil {
		l.mu.Unlock()
		c.WithFields(log.Fields{"err": err, "token": f.address, "payer": payer}).Warn("token transferFrom rejected")
		return err
	}
	if t.allowance[key(payer)] == nil {
		t.allowance[key(payer)] = map[domain.Address]*big.Int{}
	}
	t.allowance[key(payer)][key(spender)] = allowed.Sub(allowed, amount)
	l.mu.Unlock()
	l.applied(c, Transfer{Op: OpFungibleTransfer, Registry: f.address, From: payer, To: recipient, Amount: new(big.Int).Set(amount)})
	return nil
}

type assetRegistry struct {
	l       *Ledger
	address domain.Address
}

func (a *assetRegistry) collection() *collection {
	return a.l.collections[a.address]
}

func (a *assetRegistry) OwnerOf(c ctx.Ctx, tokenId *big.Int) (domain.Address, error) {
	a.l.mu.Lock()
	defer a.l.mu.Unlock()
	owner, ok := a.collection().owners[tokenId.String()]
	if !ok {
		return "", domain.ErrNotFound
	}
	return owner, nil
}

func (a *assetRegistry) IsApproved(c ctx.Ctx, owner, spender domain.Address, tokenId *big.Int) (bool, error) {
	a.l.mu.Lock()
	defer a.l.mu.Unlock()
	col := a.collection()
	if approved, ok := col.approved[tokenId.String()]; ok && approved.Equals(spender) {
		return true, nil
	}
	return col.operators[key(owner)][key(spender)], nil
}

func (a *assetRegistry) TransferAsset(c ctx.Ctx, from, to domain.Address, tokenId *big.Int) error {
	l := a.l
	l.mu.Lock()
	if l.injected(OpAssetTransfer, from, to) {
		l.mu.Unlock()
		return ErrInjected
	}
	col := a.collection()
	owner, ok := col.owners[tokenId.String()]
	if !ok || !owner.Equals(from) {
		l.mu.Unlock()
		return domain.ErrNotAssetOwner
	}
	col.owners[tokenId.String()] = to
	delete(col.approved, tokenId.String())
	l.mu.Unlock()
	l.applied(c, Transfer{Op: OpAssetTransfer, Registry: a.address, From: from, To: to, TokenId: new(big.Int).Set(tokenId)})
	return nil
}
