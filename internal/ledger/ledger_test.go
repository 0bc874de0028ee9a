package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contracts "sigil/contracts/ledger"
	id "sigil/pkg/domain"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/sentinel"
)

const (
	alice = id.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bob   = id.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func newLedger() *Ledger {
	return New(NewInMemoryStore())
}

func TestMintCreditsBalanceAndSupply(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	require.NoError(t, l.Mint(ctx, alice, 0, 1))
	require.NoError(t, l.Mint(ctx, bob, 0, 1))
	require.NoError(t, l.Mint(ctx, alice, 1, 2))

	qty, err := l.BalanceOf(ctx, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), qty)

	supply, err := l.TotalSupply(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), supply)

	supply, err = l.TotalSupply(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), supply)
}

func TestMintValidation(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	err := l.Mint(ctx, id.ZeroAddress, 0, 1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	err = l.Mint(ctx, alice, 0, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestBurnDebitsBalanceAndSupply(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	require.NoError(t, l.Mint(ctx, alice, 0, 3))
	require.NoError(t, l.Burn(ctx, alice, 0, 2))

	qty, err := l.BalanceOf(ctx, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), qty)

	supply, err := l.TotalSupply(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), supply)
}

func TestBurnInsufficientBalance(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	require.NoError(t, l.Mint(ctx, alice, 0, 1))

	err := l.Burn(ctx, alice, 0, 2)
	assert.ErrorIs(t, err, sentinel.ErrInsufficient)

	// No partial state: the balance is untouched.
	qty, err := l.BalanceOf(ctx, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), qty)
}

func TestBurnBatchIsAtomic(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	require.NoError(t, l.Mint(ctx, alice, 0, 1))
	require.NoError(t, l.Mint(ctx, alice, 1, 1))

	// Second entry exceeds the balance; the whole batch must fail.
	err := l.BurnBatch(ctx, alice, []contracts.Entry{
		{TypeID: 0, Quantity: 1},
		{TypeID: 1, Quantity: 2},
	})
	assert.ErrorIs(t, err, sentinel.ErrInsufficient)

	qty, err := l.BalanceOf(ctx, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), qty, "failed batch must not touch any balance")

	require.NoError(t, l.BurnBatch(ctx, alice, []contracts.Entry{
		{TypeID: 0, Quantity: 1},
		{TypeID: 1, Quantity: 1},
	}))

	balances, err := l.BalanceOfBatch(ctx, []id.Address{alice, alice}, []id.CredentialTypeID{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 0}, balances)
}

func TestBurnBatchValidation(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	err := l.BurnBatch(ctx, alice, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	err = l.BurnBatch(ctx, alice, []contracts.Entry{{TypeID: 0, Quantity: 0}})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestTransferAlwaysFails(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	require.NoError(t, l.Mint(ctx, alice, 0, 1))

	err := l.Transfer(ctx, alice, bob, 0, 1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNonTransferable))

	// Holding a balance changes nothing: the guard is unconditional.
	qty, err := l.BalanceOf(ctx, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), qty)

	qty, err = l.BalanceOf(ctx, bob, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), qty)
}

func TestRecoverMovesBetweenHolders(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	require.NoError(t, l.Mint(ctx, alice, 0, 1))
	require.NoError(t, l.Mint(ctx, alice, 2, 1))

	require.NoError(t, l.Recover(ctx, alice, bob, []contracts.Entry{
		{TypeID: 0, Quantity: 1},
		{TypeID: 2, Quantity: 1},
	}))

	balances, err := l.BalanceOfBatch(ctx,
		[]id.Address{alice, alice, bob, bob},
		[]id.CredentialTypeID{0, 2, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 0, 1, 1}, balances)

	// Supply is conserved by a recovery.
	supply, err := l.TotalSupply(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), supply)
}

func TestRecoverValidation(t *testing.T) {
	l := newLedger()
	ctx := context.Background()
	entries := []contracts.Entry{{TypeID: 0, Quantity: 1}}

	assert.True(t, dErrors.HasCode(l.Recover(ctx, id.ZeroAddress, bob, entries), dErrors.CodeInvalidInput))
	assert.True(t, dErrors.HasCode(l.Recover(ctx, alice, id.ZeroAddress, entries), dErrors.CodeInvalidInput))
	assert.True(t, dErrors.HasCode(l.Recover(ctx, alice, alice, entries), dErrors.CodeInvalidInput))
	assert.True(t, dErrors.HasCode(l.Recover(ctx, alice, bob, nil), dErrors.CodeInvalidInput))
}

func TestApprovals(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	approved, err := l.IsApprovedForAll(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, approved)

	require.NoError(t, l.SetApprovalForAll(ctx, alice, bob, true))
	approved, err = l.IsApprovedForAll(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, approved)

	// Approval is directional.
	approved, err = l.IsApprovedForAll(ctx, bob, alice)
	require.NoError(t, err)
	assert.False(t, approved)

	require.NoError(t, l.SetApprovalForAll(ctx, alice, bob, false))
	approved, err = l.IsApprovedForAll(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, approved)
}

func TestApprovalValidation(t *testing.T) {
	l := newLedger()
	ctx := context.Background()

	assert.True(t, dErrors.HasCode(l.SetApprovalForAll(ctx, alice, alice, true), dErrors.CodeInvalidInput))
	assert.True(t, dErrors.HasCode(l.SetApprovalForAll(ctx, id.ZeroAddress, bob, true), dErrors.CodeInvalidInput))
	assert.True(t, dErrors.HasCode(l.SetApprovalForAll(ctx, alice, id.ZeroAddress, true), dErrors.CodeInvalidInput))
}

func TestBalanceOfBatchLengthMismatch(t *testing.T) {
	l := newLedger()

	_, err := l.BalanceOfBatch(context.Background(), []id.Address{alice}, nil)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
