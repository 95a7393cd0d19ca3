package console

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
	"duoadmin/domain/session"
	"duoadmin/domain/shared"
	"duoadmin/domain/status"
)

const summaryConcurrency = 4

// EntitySummary is one dashboard card.
type EntitySummary struct {
	Entity  entity.Entity  `json:"entity"`
	Total   int            `json:"total"`
	Counts  map[string]int `json:"counts"`
	Failed  bool           `json:"failed"`
	Message string         `json:"message,omitempty"`
}

// Summary is the dashboard overview.
type Summary struct {
	Entities []EntitySummary `json:"entities"`
	// Revenue is the total price of completed orders.
	Revenue string `json:"revenue"`
	// Deposited and Withdrawn total the processed transactions.
	Deposited string `json:"deposited"`
	Withdrawn string `json:"withdrawn"`
}

// Summary loads every collection in parallel and counts it. A collection
// that fails to load is reported as failed; the others still count.
func (s *ApplicationService) Summary(ctx context.Context, sess session.Session) (*Summary, error) {
	all := entity.All()
	cards := make([]EntitySummary, len(all))

	var mu sync.Mutex
	loaded := make(map[entity.Entity][]listing.Item, len(all))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, e := range all {
		g.Go(func() error {
			card := EntitySummary{Entity: e}
			items, err := s.ensure(gctx, sess, e)
			if err != nil {
				card.Failed = true
				card.Message = loadFailureMessage(err)
				cards[i] = card
				return nil
			}
			card.Total = len(items)
			card.Counts = listing.CountByStatus(items, status.Declared(e))
			cards[i] = card

			mu.Lock()
			loaded[e] = items
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Summary{
		Entities:  cards,
		Revenue:   total(loaded[entity.Order], "price", status.OrderCompleted, shared.UnitVND),
		Deposited: total(loaded[entity.Deposit], "amount", status.TxProcessed, shared.UnitCoin),
		Withdrawn: total(loaded[entity.Withdrawal], "amount", status.TxProcessed, shared.UnitCoin),
	}, nil
}

func total(items []listing.Item, field, onlyStatus, unit string) string {
	sum := shared.NewMoney(0, unit)
	for _, it := range items {
		if it.StatusRaw != onlyStatus {
			continue
		}
		n, _ := it.Number(field)
		if next, ok := sum.Add(shared.NewMoney(n, unit)); ok {
			sum = next
		}
	}
	return sum.String()
}
