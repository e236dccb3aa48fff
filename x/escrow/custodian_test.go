package escrow

import (
	"context"
	"sync"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/custodytest/assert"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/x/badge"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db        custody.CacheableKVStore
	ledger    *asset.Ledger
	custodian *Custodian
}

func newFixture(t testing.TB, opts ...Option) *fixture {
	t.Helper()
	ledger := asset.NewLedger()
	issuer := badge.NewIssuer(ledger, badge.WithIDSource(custodytest.SequenceIDs()))
	return &fixture{
		db:        store.MemStore(),
		ledger:    ledger,
		custodian: NewCustodian(issuer, opts...),
	}
}

func (f *fixture) fungible(t testing.TB, name string, q asset.Quantity) (asset.ClassID, *asset.Bucket) {
	return custodytest.Fungible(t, f.db, f.ledger, name, q)
}

func (f *fixture) items(t testing.TB, name string, items ...asset.ItemID) (asset.ClassID, *asset.Bucket) {
	return custodytest.NonFungible(t, f.db, f.ledger, name, items...)
}

func (f *fixture) instantiate(t testing.TB, requested ResourceSpecifier, offered *asset.Bucket) ([]byte, badge.Token) {
	t.Helper()
	_, id, token, err := f.custodian.Instantiate(context.Background(), f.db, requested, offered)
	assert.Nil(t, err)
	return id, token
}

// assertUnchanged fails if the escrow state or any of its vaults differs
// from the given snapshot.
func (f *fixture) assertUnchanged(t testing.TB, id []byte, state State, offered, received asset.Holding) {
	t.Helper()
	e, err := f.custodian.Escrow(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, state, e.State)
	o, r, err := f.custodian.Holdings(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, offered, o)
	assert.Equal(t, received, r)
}

func TestInstantiate(t *testing.T) {
	f := newFixture(t)
	a, coinsA := f.fungible(t, "coin A", asset.Units(100))
	b, _ := f.fungible(t, "coin B", asset.Units(1))

	requested := Fungible{Class: b, Amount: asset.Units(50)}
	esc, id, token, err := f.custodian.Instantiate(context.Background(), f.db, requested, coinsA)
	assert.Nil(t, err)

	assert.Equal(t, ormKey(1), id)
	assert.Equal(t, Open, esc.State)
	assert.Equal(t, a, esc.OfferedClass)
	assert.Equal(t, esc.BadgeClass, token.Class)
	assert.Equal(t, a, token.OfferedClass)
	require.True(t, coinsA.IsEmpty(), "offered bucket must be moved into custody")

	stored, err := f.custodian.Escrow(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, requested, stored.Requested)
	assert.Equal(t, OfferCondition(id).Address(), stored.OfferedVault)
	assert.Equal(t, ReceiveCondition(id).Address(), stored.ReceivedVault)

	offered, received, err := f.custodian.Holdings(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, asset.Holding{Class: a, Kind: asset.Fungible, Amount: asset.Units(100)}, offered)
	assert.Equal(t, asset.Holding{Class: b, Kind: asset.Fungible}, received)

	c, err := f.ledger.Class(f.db, token.Class)
	assert.Nil(t, err)
	assert.Equal(t, asset.NonFungible, c.Kind)

	_, err = f.custodian.Escrow(f.db, ormKey(2))
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestInstantiateValidation(t *testing.T) {
	f := newFixture(t)
	a, coinsA := f.fungible(t, "coin A", asset.Units(100))
	x, _ := f.items(t, "item", asset.StringItemID("x"))

	cases := map[string]struct {
		requested ResourceSpecifier
		offered   *asset.Bucket
		wantErr   *errors.Error
	}{
		"missing specifier": {
			requested: nil,
			offered:   coinsA,
			wantErr:   ErrInvalidSpecifier,
		},
		"zero amount": {
			requested: Fungible{Class: a, Amount: asset.Quantity{}},
			offered:   coinsA,
			wantErr:   ErrInvalidSpecifier,
		},
		"negative amount": {
			requested: Fungible{Class: a, Amount: asset.Units(-1)},
			offered:   coinsA,
			wantErr:   ErrInvalidSpecifier,
		},
		"malformed class": {
			requested: Fungible{Class: "gold", Amount: asset.Units(1)},
			offered:   coinsA,
			wantErr:   ErrInvalidSpecifier,
		},
		"malformed item id": {
			requested: NonFungible{Class: x, ItemID: "Y"},
			offered:   coinsA,
			wantErr:   ErrInvalidSpecifier,
		},
		"nil offer": {
			requested: NonFungible{Class: x, ItemID: asset.StringItemID("y")},
			offered:   nil,
			wantErr:   ErrInvalidOffer,
		},
		"empty offer": {
			requested: NonFungible{Class: x, ItemID: asset.StringItemID("y")},
			offered:   asset.EmptyBucket(a, asset.Fungible),
			wantErr:   ErrInvalidOffer,
		},
		"malformed offer": {
			requested: NonFungible{Class: x, ItemID: asset.StringItemID("y")},
			offered:   asset.NewFungibleBucket("gold", asset.Units(1)),
			wantErr:   ErrInvalidOffer,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, _, _, err := f.custodian.Instantiate(context.Background(), f.db, tc.requested, tc.offered)
			assert.IsErr(t, tc.wantErr, err)
		})
	}

	require.False(t, coinsA.IsEmpty(), "rejected offer must stay with the caller")
	_, err := f.custodian.Escrow(f.db, ormKey(1))
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestCancelReturnsOffer(t *testing.T) {
	cases := map[string]struct {
		offer func(t *testing.T, f *fixture) (*asset.Bucket, ResourceSpecifier)
	}{
		"fungible": {
			offer: func(t *testing.T, f *fixture) (*asset.Bucket, ResourceSpecifier) {
				_, coins := f.fungible(t, "coin A", asset.NewQuantity(12, 500000000))
				b, _ := f.fungible(t, "coin B", asset.Units(1))
				return coins, Fungible{Class: b, Amount: asset.Units(3)}
			},
		},
		"non fungible": {
			offer: func(t *testing.T, f *fixture) (*asset.Bucket, ResourceSpecifier) {
				_, items := f.items(t, "swords", asset.IntegerItemID(1), asset.IntegerItemID(2))
				b, _ := f.fungible(t, "coin B", asset.Units(1))
				return items, Fungible{Class: b, Amount: asset.Units(3)}
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			offered, requested := tc.offer(t, f)
			want := offered.Holding()

			id, token := f.instantiate(t, requested, offered)

			got, err := f.custodian.Cancel(ctx, f.db, id, token)
			assert.Nil(t, err)
			assert.Equal(t, want, got.Holding())

			esc, err := f.custodian.Escrow(f.db, id)
			assert.Nil(t, err)
			assert.Equal(t, Cancelled, esc.State)

			_, err = f.custodian.Cancel(ctx, f.db, id, token)
			assert.IsErr(t, ErrAlreadyFulfilled, err)

			_, err = f.custodian.Withdraw(ctx, f.db, id, token)
			assert.IsErr(t, ErrNotFulfilled, err)

			o, r, err := f.custodian.Holdings(f.db, id)
			assert.Nil(t, err)
			require.True(t, o.IsEmpty())
			require.True(t, r.IsEmpty())
		})
	}
}

func TestExchangeThenWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, coinsA := f.fungible(t, "coin A", asset.Units(10))
	wantOffer := coinsA.Holding()
	y, payment := f.items(t, "items", asset.StringItemID("y"), asset.StringItemID("z"))

	id, token := f.instantiate(t, NonFungible{Class: y, ItemID: asset.StringItemID("y")}, coinsA)

	_, err := f.custodian.Withdraw(ctx, f.db, id, token)
	assert.IsErr(t, ErrNotFulfilled, err)

	got, err := f.custodian.Exchange(ctx, f.db, id, payment)
	assert.Nil(t, err)
	assert.Equal(t, wantOffer, got.Holding())
	assert.Equal(t, []asset.ItemID{asset.StringItemID("z")}, payment.Items())

	// At most one vault holds assets after the exchange.
	o, r, err := f.custodian.Holdings(f.db, id)
	assert.Nil(t, err)
	require.True(t, o.IsEmpty())
	assert.Equal(t, []asset.ItemID{asset.StringItemID("y")}, r.Items)

	_, err = f.custodian.Exchange(ctx, f.db, id, payment)
	assert.IsErr(t, ErrAlreadyFulfilled, err)
	_, err = f.custodian.Cancel(ctx, f.db, id, token)
	assert.IsErr(t, ErrAlreadyFulfilled, err)

	received, err := f.custodian.Withdraw(ctx, f.db, id, token)
	assert.Nil(t, err)
	assert.Equal(t, []asset.ItemID{asset.StringItemID("y")}, received.Items())
	assert.Equal(t, y, received.Class())

	esc, err := f.custodian.Escrow(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, Closed, esc.State)

	_, err = f.custodian.Withdraw(ctx, f.db, id, token)
	assert.IsErr(t, ErrAlreadyWithdrawn, err)
	_, err = f.custodian.Exchange(ctx, f.db, id, payment)
	assert.IsErr(t, ErrAlreadyFulfilled, err)
}

func TestExchangeMismatch(t *testing.T) {
	f := newFixture(t)
	a, _ := f.fungible(t, "coin A", asset.Units(1))
	b, _ := f.fungible(t, "coin B", asset.Units(1))
	x, _ := f.items(t, "item X", asset.StringItemID("x"), asset.StringItemID("w"))

	cases := map[string]struct {
		requested ResourceSpecifier
		payment   *asset.Bucket
		field     string
		amount    bool
	}{
		"wrong class": {
			requested: Fungible{Class: b, Amount: asset.Units(50)},
			payment:   asset.NewFungibleBucket(a, asset.Units(50)),
			field:     "Class",
		},
		"insufficient amount": {
			requested: Fungible{Class: b, Amount: asset.Units(50)},
			payment:   asset.NewFungibleBucket(b, asset.NewQuantity(49, 999999999)),
			field:     "Amount",
			amount:    true,
		},
		"overpayment": {
			requested: Fungible{Class: b, Amount: asset.Units(50)},
			payment:   asset.NewFungibleBucket(b, asset.Units(60)),
			field:     "Amount",
			amount:    true,
		},
		"empty payment": {
			requested: Fungible{Class: b, Amount: asset.Units(50)},
			payment:   asset.EmptyBucket(b, asset.Fungible),
			field:     "Amount",
			amount:    true,
		},
		"items for a fungible request": {
			requested: Fungible{Class: b, Amount: asset.Units(1)},
			payment:   asset.NewItemBucket(x, asset.StringItemID("x")),
			field:     "Class",
		},
		"wrong item": {
			requested: NonFungible{Class: x, ItemID: asset.StringItemID("x")},
			payment:   asset.NewItemBucket(x, asset.StringItemID("w")),
			field:     "ItemID",
		},
		"item of another class": {
			requested: NonFungible{Class: x, ItemID: asset.StringItemID("x")},
			payment:   asset.NewItemBucket(a, asset.StringItemID("x")),
			field:     "Class",
		},
		"denormalized payment": {
			requested: Fungible{Class: b, Amount: asset.Units(50)},
			payment:   asset.NewFungibleBucket(b, asset.NewQuantity(49, 1000000000)),
			field:     "Amount",
			amount:    true,
		},
		"no payment": {
			requested: NonFungible{Class: x, ItemID: asset.StringItemID("x")},
			payment:   nil,
			field:     "Amount",
			amount:    true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, coinsA := f.fungible(t, "offer", asset.Units(7))
			id, _ := f.instantiate(t, tc.requested, coinsA)
			offered, received, err := f.custodian.Holdings(f.db, id)
			assert.Nil(t, err)

			var before asset.Holding
			if tc.payment != nil {
				before = tc.payment.Holding()
			}

			_, err = f.custodian.Exchange(context.Background(), f.db, id, tc.payment)
			assert.IsErr(t, ErrResourceMismatch, err)
			assert.FieldError(t, err, tc.field, ErrResourceMismatch)
			assert.Equal(t, tc.amount, IsAmountMismatch(err))

			if tc.payment != nil {
				assert.Equal(t, before, tc.payment.Holding())
			}
			f.assertUnchanged(t, id, Open, offered, received)
		})
	}
}

func TestForeignToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b, payment := f.fungible(t, "coin B", asset.Units(5))
	_, first := f.fungible(t, "coin A", asset.Units(1))
	_, second := f.fungible(t, "coin C", asset.Units(2))

	id1, token1 := f.instantiate(t, Fungible{Class: b, Amount: asset.Units(5)}, first)
	id2, token2 := f.instantiate(t, Fungible{Class: b, Amount: asset.Units(5)}, second)

	offered, received, err := f.custodian.Holdings(f.db, id1)
	assert.Nil(t, err)

	_, err = f.custodian.Cancel(ctx, f.db, id1, token2)
	assert.IsErr(t, ErrUnauthorized, err)
	f.assertUnchanged(t, id1, Open, offered, received)

	forged := token1
	forged.ID = token2.ID
	_, err = f.custodian.Cancel(ctx, f.db, id1, forged)
	assert.IsErr(t, ErrUnauthorized, err)
	f.assertUnchanged(t, id1, Open, offered, received)

	_, err = f.custodian.Exchange(ctx, f.db, id1, payment)
	assert.Nil(t, err)
	offered, received, err = f.custodian.Holdings(f.db, id1)
	assert.Nil(t, err)

	_, err = f.custodian.Withdraw(ctx, f.db, id1, token2)
	assert.IsErr(t, ErrUnauthorized, err)
	_, err = f.custodian.Withdraw(ctx, f.db, id1, badge.Token{})
	assert.IsErr(t, ErrUnauthorized, err)
	f.assertUnchanged(t, id1, Fulfilled, offered, received)

	// The rejected tokens are still valid for their own escrow.
	_, err = f.custodian.Cancel(ctx, f.db, id2, token2)
	assert.Nil(t, err)
	_, err = f.custodian.Withdraw(ctx, f.db, id1, token1)
	assert.Nil(t, err)
}

// Deposit 100 A requesting 50 B. Paying 60 B is rejected, paying 50 B
// succeeds and the depositor withdraws 50 B.
func TestScenarioExactPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a, coinsA := f.fungible(t, "coin A", asset.Units(100))
	b, coinsB := f.fungible(t, "coin B", asset.Units(110))

	id, token := f.instantiate(t, Fungible{Class: b, Amount: asset.Units(50)}, coinsA)

	sixty, err := coinsB.Take(asset.Units(60))
	assert.Nil(t, err)
	_, err = f.custodian.Exchange(ctx, f.db, id, sixty)
	assert.IsErr(t, ErrResourceMismatch, err)
	require.True(t, IsAmountMismatch(err))
	assert.Equal(t, asset.Units(60), sixty.Quantity())

	fifty, err := coinsB.Take(asset.Units(50))
	assert.Nil(t, err)
	got, err := f.custodian.Exchange(ctx, f.db, id, fifty)
	assert.Nil(t, err)
	assert.Equal(t, a, got.Class())
	assert.Equal(t, asset.Units(100), got.Quantity())
	require.True(t, fifty.IsEmpty())

	esc, err := f.custodian.Escrow(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, Fulfilled, esc.State)

	received, err := f.custodian.Withdraw(ctx, f.db, id, token)
	assert.Nil(t, err)
	assert.Equal(t, b, received.Class())
	assert.Equal(t, asset.Units(50), received.Quantity())

	esc, err = f.custodian.Escrow(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, Closed, esc.State)
}

// Deposit item X requesting item Y, cancel before any exchange.
func TestScenarioCancelItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	x, itemX := f.items(t, "item X", asset.StringItemID("x"))
	y, itemY := f.items(t, "item Y", asset.StringItemID("y"))

	id, token := f.instantiate(t, NonFungible{Class: y, ItemID: asset.StringItemID("y")}, itemX)

	got, err := f.custodian.Cancel(ctx, f.db, id, token)
	assert.Nil(t, err)
	assert.Equal(t, x, got.Class())
	assert.Equal(t, []asset.ItemID{asset.StringItemID("x")}, got.Items())

	esc, err := f.custodian.Escrow(f.db, id)
	assert.Nil(t, err)
	assert.Equal(t, Cancelled, esc.State)

	_, err = f.custodian.Exchange(ctx, f.db, id, itemY)
	assert.IsErr(t, ErrCancelled, err)
	require.False(t, itemY.IsEmpty())
}

func TestOverpaymentTake(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	conf := DefaultConfiguration()
	conf.Overpayment = OverpaymentTake
	assert.Nil(t, SaveConfiguration(f.db, conf))

	_, coinsA := f.fungible(t, "coin A", asset.Units(100))
	b, coinsB := f.fungible(t, "coin B", asset.Units(60))
	id, token := f.instantiate(t, Fungible{Class: b, Amount: asset.Units(50)}, coinsA)

	_, err := f.custodian.Exchange(ctx, f.db, id, coinsB)
	assert.Nil(t, err)
	require.Equal(t, asset.Units(10), coinsB.Quantity(), "change must stay with the payer")

	received, err := f.custodian.Withdraw(ctx, f.db, id, token)
	assert.Nil(t, err)
	assert.Equal(t, asset.Units(50), received.Quantity())
}

func TestOverpaymentTakeInvalidPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	conf := DefaultConfiguration()
	conf.Overpayment = OverpaymentTake
	assert.Nil(t, SaveConfiguration(f.db, conf))

	_, coinsA := f.fungible(t, "coin A", asset.Units(100))
	b, _ := f.fungible(t, "coin B", asset.Units(1))
	id, _ := f.instantiate(t, Fungible{Class: b, Amount: asset.Units(50)}, coinsA)
	offered, received, err := f.custodian.Holdings(f.db, id)
	assert.Nil(t, err)

	payment := asset.NewFungibleBucket(b, asset.NewQuantity(60, -1))
	_, err = f.custodian.Exchange(ctx, f.db, id, payment)
	assert.FieldError(t, err, "Amount", ErrResourceMismatch)
	require.True(t, IsAmountMismatch(err))
	assert.Equal(t, asset.NewQuantity(60, -1), payment.Quantity())
	f.assertUnchanged(t, id, Open, offered, received)
}

func TestConcurrentExchange(t *testing.T) {
	f := newFixture(t)
	_, coinsA := f.fungible(t, "coin A", asset.Units(100))
	b, coinsB := f.fungible(t, "coin B", asset.Units(500))
	id, _ := f.instantiate(t, Fungible{Class: b, Amount: asset.Units(50)}, coinsA)

	const workers = 10
	payments := make([]*asset.Bucket, workers)
	for i := range payments {
		p, err := coinsB.Take(asset.Units(50))
		assert.Nil(t, err)
		payments[i] = p
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for _, p := range payments {
		wg.Add(1)
		go func(p *asset.Bucket) {
			defer wg.Done()
			_, err := f.custodian.Exchange(context.Background(), f.db, id, p)
			if err == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}(p)
	}
	wg.Wait()

	require.Equal(t, 1, won)
	paid := 0
	for _, p := range payments {
		if p.IsEmpty() {
			paid++
		}
	}
	require.Equal(t, 1, paid, "only the winning payment is taken")
}

func TestLoggingAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	f := newFixture(t, WithMetrics(metrics))
	logger, logs := custodytest.NewLogger()
	ctx := custody.WithLogger(context.Background(), logger)

	_, coinsA := f.fungible(t, "coin A", asset.Units(100))
	b, coinsB := f.fungible(t, "coin B", asset.Units(50))
	id, token := f.instantiate(t, Fungible{Class: b, Amount: asset.Units(50)}, coinsA)

	_, err := f.custodian.Withdraw(ctx, f.db, id, token)
	assert.IsErr(t, ErrNotFulfilled, err)
	_, err = f.custodian.Exchange(ctx, f.db, id, coinsB)
	assert.Nil(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.transitions.WithLabelValues(opInstantiate, "open")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.transitions.WithLabelValues(opExchange, "fulfilled")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.failures.WithLabelValues(opWithdraw)))

	out := logs.String()
	require.Contains(t, out, "escrow transition")
	require.Contains(t, out, "state=fulfilled")
	require.Contains(t, out, "escrow operation rejected")
	require.Contains(t, out, "op=withdraw")
}

// ormKey returns the identifier of the n-th created escrow.
func ormKey(n int64) []byte {
	return orm.EncodeSequence(n)
}
