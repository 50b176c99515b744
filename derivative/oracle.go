package derivative

import (
	"github.com/google/orderedcode"
	"github.com/google/uuid"

	"github.com/constellation-lab/constellation-zkevm/types"
)

// Coordinator issues randomness requests to the external oracle and returns
// the id the oracle will quote when it fulfills the request. Every replica
// must derive the same id for the same request.
type Coordinator interface {
	RequestRandomness(ctx *Context, optionID uint64, numWords uint32) (uuid.UUID, error)
}

var requestNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("constellation/oracle"))

// LedgerCoordinator derives request ids from a nonce kept in the ledger. The
// off-chain oracle watches RandomnessRequested events and answers with a
// fulfill_randomness transaction.
type LedgerCoordinator struct{}

func (LedgerCoordinator) RequestRandomness(ctx *Context, optionID uint64, numWords uint32) (uuid.UUID, error) {
	nonce, err := ctx.ledger.NextOracleNonce()
	if err != nil {
		return uuid.Nil, err
	}
	name, err := orderedcode.Append(nil, int64(optionID), int64(nonce))
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.NewSHA1(requestNamespace, name), nil
}

func (e *Engine) requestRandomness(ctx *Context, opt *types.Option) (uuid.UUID, error) {
	id, err := e.coordinator.RequestRandomness(ctx, opt.ID, e.oracleWords)
	if err != nil {
		return uuid.Nil, err
	}
	if _, exists, err := ctx.ledger.Request(id); err != nil {
		return uuid.Nil, err
	} else if exists {
		return uuid.Nil, types.Wrapf(types.ErrInternal, "duplicate randomness request %s", id)
	}

	if err := ctx.ledger.SetRequest(&types.OracleRequest{
		ID:       id,
		OptionID: opt.ID,
		NumWords: e.oracleWords,
		Height:   ctx.height,
	}); err != nil {
		return uuid.Nil, err
	}
	opt.PendingRequest = &id
	if err := ctx.ledger.SetOption(opt); err != nil {
		return uuid.Nil, err
	}
	if err := ctx.emit(&types.RandomnessRequested{RequestID: id, ID: opt.ID, NumWords: e.oracleWords}); err != nil {
		return uuid.Nil, err
	}

	e.metrics.OracleRequests.Add(1)
	e.logger.Debug("requested randomness", "id", opt.ID, "request", id)
	return id, nil
}

// fulfillRandomness consumes a pending request and settles its option with the
// first word. A request can be consumed once; if settlement fails the whole
// call reverts and the request stays pending.
func (e *Engine) fulfillRandomness(ctx *Context, m *types.MsgFulfillRandomness) error {
	if err := e.onlyOracle(ctx); err != nil {
		return err
	}
	return e.nonReentrant(ctx, func() error {
		req, ok, err := ctx.ledger.Request(m.RequestID)
		if err != nil {
			return err
		}
		if !ok || req.Fulfilled {
			return types.Wrapf(types.ErrUnknownRequest, "%s", m.RequestID)
		}
		if len(m.Words) < int(req.NumWords) {
			return types.Wrapf(types.ErrInvalidArray, "request %s wants %d words, got %d", req.ID, req.NumWords, len(m.Words))
		}

		req.Fulfilled = true
		req.Words = append([]uint64{}, m.Words...)
		if err := ctx.ledger.SetRequest(req); err != nil {
			return err
		}
		if err := ctx.emit(&types.RandomnessFulfilled{RequestID: req.ID, ID: req.OptionID, Words: req.Words}); err != nil {
			return err
		}

		opt, err := ctx.ledger.Option(req.OptionID)
		if err != nil {
			return err
		}
		if opt.PendingRequest == nil || *opt.PendingRequest != req.ID {
			return types.Wrapf(types.ErrUnknownRequest, "option %d is not waiting on %s", opt.ID, req.ID)
		}

		e.metrics.OracleFulfillments.Add(1)
		return e.settle(ctx, opt, m.Words[0])
	})
}
