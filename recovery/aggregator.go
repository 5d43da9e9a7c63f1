package recovery

import (
	"context"
	"errors"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentReads bounds the modifiers read at once; each read already
// issues several calls per queued item.
const maxConcurrentReads = 4

// Params are the inputs of one aggregation cycle.
type Params struct {
	DelayModifiers     []common.Address
	Provider           Provider
	SafeAddress        common.Address
	ChainId            int64
	Version            string
	TransactionService string
}

func (p Params) ready() bool {
	return len(p.DelayModifiers) > 0 && p.Provider != nil && p.TransactionService != ""
}

// Aggregator combines the snapshots of every Delay Modifier of a Safe.
type Aggregator struct {
	reader *Reader
}

func NewAggregator(reader *Reader) *Aggregator {
	return &Aggregator{reader: reader}
}

// Aggregate reads every configured modifier concurrently.
//
// ok is false when the preconditions are not met (no modifiers, no provider or
// no transaction service); that is not an error. A modifier that fails to read
// falls back to its snapshot in previous, if any, otherwise the whole cycle fails
// and the caller should keep its previous state.
func (a *Aggregator) Aggregate(ctx context.Context, params Params, previous State) (State, bool, error) {
	if !params.ready() {
		return nil, false, nil
	}

	snapshots := make([]DelayModifier, len(params.DelayModifiers))
	errs := make([]error, len(params.DelayModifiers))

	// a failed modifier must not cancel its siblings, so per-modifier errors
	// are collected in errs and only cancellation stops the group
	var g errgroup.Group
	g.SetLimit(maxConcurrentReads)
	for i, modifier := range params.DelayModifiers {
		i, modifier := i, modifier
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			snapshots[i], errs[i] = a.reader.Read(ctx, params, modifier)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var failed []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		stale, ok := previous.Modifier(params.DelayModifiers[i])
		if !ok {
			failed = append(failed, err)
			continue
		}
		log.Printf("Aggregator.Aggregate: keeping stale snapshot of %s: %v\n", params.DelayModifiers[i].Hex(), err)
		snapshots[i] = stale
	}
	if len(failed) > 0 {
		return nil, false, errors.Join(failed...)
	}
	return State(snapshots), true, nil
}
