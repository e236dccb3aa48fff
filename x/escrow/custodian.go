package escrow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/x/badge"
)

const (
	opInstantiate = "instantiate"
	opExchange    = "exchange"
	opWithdraw    = "withdraw"
	opCancel      = "cancel"
)

// Custodian holds escrow instances in a store and performs their
// transitions. Mutating operations are serialized, reads may run
// concurrently with each other.
type Custodian struct {
	mu      sync.RWMutex
	escrows orm.ModelBucket
	seq     orm.Sequence
	vaults  *asset.VaultBucket
	issuer  *badge.Issuer
	metrics *Metrics
}

// Option configures a Custodian.
type Option func(*Custodian)

// WithMetrics makes the custodian count its operations.
func WithMetrics(m *Metrics) Option {
	return func(c *Custodian) {
		c.metrics = m
	}
}

// NewCustodian returns a custodian minting claim tokens with given issuer.
func NewCustodian(issuer *badge.Issuer, opts ...Option) *Custodian {
	c := &Custodian{
		escrows: newEscrowBucket(),
		seq:     escrowSeq,
		vaults:  asset.NewVaultBucket(),
		issuer:  issuer,
	}
	for _, fn := range opts {
		fn(c)
	}
	return c
}

// Instantiate creates a new escrow holding the whole offered bucket and
// requesting the specified resource. It returns the escrow, its identifier
// and the claim token. The token is the only way to cancel the escrow or to
// withdraw the payment, the caller must keep it.
//
// The offered bucket is drained on success.
func (c *Custodian) Instantiate(
	ctx context.Context,
	db custody.CacheableKVStore,
	requested ResourceSpecifier,
	offered *asset.Bucket,
) (esc *Escrow, id []byte, token badge.Token, err error) {
	start := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.done(ctx, opInstantiate, id, esc, start, err) }()

	if requested == nil {
		return nil, nil, badge.Token{}, errors.Wrap(ErrInvalidSpecifier, "missing")
	}
	if err := requested.Validate(); err != nil {
		return nil, nil, badge.Token{}, errors.Wrap(ErrInvalidSpecifier, err.Error())
	}
	if offered.IsEmpty() {
		return nil, nil, badge.Token{}, errors.Wrap(ErrInvalidOffer, "empty bucket")
	}
	if err := offered.Holding().Validate(); err != nil {
		return nil, nil, badge.Token{}, errors.Wrap(ErrInvalidOffer, err.Error())
	}

	err = store.Atomically(db, func(db custody.KVStore) error {
		key, err := c.seq.NextVal(db)
		if err != nil {
			return errors.Wrap(err, "escrow sequence")
		}
		e := &Escrow{
			Metadata:      &custody.Metadata{Schema: 1},
			Requested:     requested,
			OfferedVault:  OfferCondition(key).Address(),
			ReceivedVault: ReceiveCondition(key).Address(),
			OfferedClass:  offered.Class(),
			State:         Open,
		}
		if err := c.vaults.Deposit(db, e.OfferedVault, offered.Clone()); err != nil {
			return errors.Wrap(err, "offer vault")
		}
		if err := c.vaults.Open(db, e.ReceivedVault, requested.AssetClass(), requested.Kind()); err != nil {
			return errors.Wrap(err, "receive vault")
		}
		if e.BadgeClass, err = c.issuer.NewClass(db); err != nil {
			return err
		}
		if token, err = c.issuer.Mint(db, e.BadgeClass, e.OfferedClass); err != nil {
			return err
		}
		if err := c.escrows.Put(db, key, e); err != nil {
			return errors.Wrap(err, "cannot store escrow")
		}
		esc, id = e, key
		return nil
	})
	if err != nil {
		return nil, nil, badge.Token{}, err
	}
	offered.TakeAll()
	return esc, id, token, nil
}

// Exchange pays for the offered asset of an open escrow. The requested
// resource is moved from payment into custody and the whole offered asset is
// returned. No claim token is needed.
//
// Payment is modified only on success. Under the exact overpayment policy the
// payment must hold exactly the requested amount, under the take policy the
// change is left in the payment bucket.
func (c *Custodian) Exchange(
	ctx context.Context,
	db custody.CacheableKVStore,
	id []byte,
	payment *asset.Bucket,
) (offered *asset.Bucket, err error) {
	start := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	var esc *Escrow
	defer func() { c.done(ctx, opExchange, id, esc, start, err) }()

	if payment == nil {
		return nil, errors.Field("Amount", ErrResourceMismatch, "no payment")
	}
	if verr := payment.Holding().Validate(); verr != nil {
		return nil, errors.Field("Amount", ErrResourceMismatch, "invalid payment: %s", verr)
	}
	rest := payment.Clone()
	err = store.Atomically(db, func(db custody.KVStore) error {
		e, err := c.load(db, id)
		if err != nil {
			return err
		}
		switch e.State {
		case Open:
		case Cancelled:
			return errors.Wrap(ErrCancelled, "cannot exchange")
		default:
			return errors.Wrapf(ErrAlreadyFulfilled, "escrow is %s", e.State)
		}
		conf, err := LoadConfiguration(db)
		if err != nil {
			return err
		}
		taken, err := e.Requested.take(rest, conf.Overpayment)
		if err != nil {
			return err
		}
		if err := c.vaults.Deposit(db, e.ReceivedVault, taken); err != nil {
			return errors.Wrap(err, "receive vault")
		}
		if offered, err = c.vaults.TakeAll(db, e.OfferedVault); err != nil {
			return errors.Wrap(err, "offer vault")
		}
		if err := c.advance(db, id, e, Fulfilled); err != nil {
			return err
		}
		esc = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	payment.Replace(rest)
	return offered, nil
}

// Withdraw releases the payment of a fulfilled escrow to the holder of the
// claim token. The token is burned.
func (c *Custodian) Withdraw(
	ctx context.Context,
	db custody.CacheableKVStore,
	id []byte,
	token badge.Token,
) (received *asset.Bucket, err error) {
	start := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	var esc *Escrow
	defer func() { c.done(ctx, opWithdraw, id, esc, start, err) }()

	err = store.Atomically(db, func(db custody.KVStore) error {
		e, err := c.load(db, id)
		if err != nil {
			return err
		}
		if err := c.authorize(db, e, token); err != nil {
			return err
		}
		switch e.State {
		case Fulfilled:
		case Closed:
			return errors.Wrap(ErrAlreadyWithdrawn, "nothing to claim")
		default:
			return errors.Wrapf(ErrNotFulfilled, "escrow is %s", e.State)
		}
		if err := c.issuer.Burn(db, token); err != nil {
			return errors.Wrap(err, "claim token")
		}
		if received, err = c.vaults.TakeAll(db, e.ReceivedVault); err != nil {
			return errors.Wrap(err, "receive vault")
		}
		if err := c.advance(db, id, e, Closed); err != nil {
			return err
		}
		esc = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return received, nil
}

// Cancel returns the offered asset of an open escrow to the holder of the
// claim token. The token is burned.
func (c *Custodian) Cancel(
	ctx context.Context,
	db custody.CacheableKVStore,
	id []byte,
	token badge.Token,
) (offered *asset.Bucket, err error) {
	start := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	var esc *Escrow
	defer func() { c.done(ctx, opCancel, id, esc, start, err) }()

	err = store.Atomically(db, func(db custody.KVStore) error {
		e, err := c.load(db, id)
		if err != nil {
			return err
		}
		if err := c.authorize(db, e, token); err != nil {
			return err
		}
		if e.State != Open {
			return errors.Wrapf(ErrAlreadyFulfilled, "escrow is %s", e.State)
		}
		if err := c.issuer.Burn(db, token); err != nil {
			return errors.Wrap(err, "claim token")
		}
		if offered, err = c.vaults.TakeAll(db, e.OfferedVault); err != nil {
			return errors.Wrap(err, "offer vault")
		}
		if err := c.advance(db, id, e, Cancelled); err != nil {
			return err
		}
		esc = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return offered, nil
}

// Escrow returns the stored state of an escrow.
func (c *Custodian) Escrow(db custody.ReadOnlyKVStore, id []byte) (*Escrow, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.load(db, id)
}

// Holdings returns the content of both escrow vaults without moving it.
func (c *Custodian) Holdings(db custody.ReadOnlyKVStore, id []byte) (offered, received asset.Holding, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, err := c.load(db, id)
	if err != nil {
		return offered, received, err
	}
	if offered, err = c.vaults.Holding(db, e.OfferedVault); err != nil {
		return offered, received, err
	}
	if received, err = c.vaults.Holding(db, e.ReceivedVault); err != nil {
		return offered, received, err
	}
	return offered, received, nil
}

func (c *Custodian) load(db custody.ReadOnlyKVStore, id []byte) (*Escrow, error) {
	if len(id) == 0 {
		return nil, errors.Wrap(errors.ErrInput, "missing escrow id")
	}
	var e Escrow
	if err := c.escrows.One(db, id, &e); err != nil {
		return nil, errors.Wrapf(err, "escrow %X", id)
	}
	return &e, nil
}

// authorize checks that the token was minted for the escrow. A burned token
// of the escrow is still its token.
func (c *Custodian) authorize(db custody.ReadOnlyKVStore, e *Escrow, token badge.Token) error {
	if token.Class != e.BadgeClass {
		return errors.Wrap(ErrUnauthorized, "token of another escrow")
	}
	if _, err := c.issuer.Verify(db, token); err != nil {
		return err
	}
	return nil
}

func (c *Custodian) advance(db custody.KVStore, id []byte, e *Escrow, next State) error {
	if !e.State.canBecome(next) {
		return errors.Wrapf(errors.ErrHuman, "transition from %s to %s", e.State, next)
	}
	e.State = next
	if err := c.escrows.Put(db, id, e); err != nil {
		return errors.Wrap(err, "cannot store escrow")
	}
	return nil
}

// done writes information about the result of an operation to the logger
// and the metrics.
func (c *Custodian) done(ctx context.Context, op string, id []byte, e *Escrow, start time.Time, err error) {
	delta := time.Now().Sub(start)
	logger := custody.GetLogger(ctx).With("op", op, "duration", delta/time.Microsecond)
	if len(id) != 0 {
		logger = logger.With("escrow", fmt.Sprintf("%X", id))
	}

	if err != nil {
		logger.Error("escrow operation rejected", "err", err)
		c.metrics.failure(op)
		return
	}
	logger.Info("escrow transition", "state", e.State)
	c.metrics.transition(op, e.State)
}
