package asset

import (
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	db := store.MemStore()
	l := NewLedger()

	coins, err := l.NewFungible(db, "coin A")
	require.NoError(t, err)
	items, err := l.NewNonFungible(db, "item X")
	require.NoError(t, err)
	assert.NotEqual(t, coins, items)

	c, err := l.Class(db, coins)
	require.NoError(t, err)
	assert.Equal(t, Fungible, c.Kind)
	assert.Equal(t, "coin A", c.Name)

	_, err = l.Class(db, gold)
	assert.True(t, errors.ErrNotFound.Is(err))

	b, err := l.Mint(db, coins, Units(100))
	require.NoError(t, err)
	assert.Equal(t, Units(100), b.Quantity())
	assert.Equal(t, coins, b.Class())

	_, err = l.Mint(db, coins, Quantity{})
	assert.True(t, errors.ErrAmount.Is(err))
	_, err = l.Mint(db, items, Units(1))
	assert.True(t, errors.ErrType.Is(err))
	_, err = l.Mint(db, gold, Units(1))
	assert.True(t, errors.ErrNotFound.Is(err))

	x := StringItemID("x")
	nft, err := l.MintItems(db, items, x, IntegerItemID(7))
	require.NoError(t, err)
	assert.Equal(t, Units(2), nft.Quantity())
	assert.True(t, nft.Contains(x))

	_, err = l.MintItems(db, items, x)
	assert.True(t, errors.ErrDuplicate.Is(err), "an item can be minted once")
	_, err = l.MintItems(db, items, "bad")
	assert.True(t, errors.ErrInput.Is(err))
	_, err = l.MintItems(db, coins, StringItemID("y"))
	assert.True(t, errors.ErrType.Is(err))
}
