package calculator

import (
	"container/heap"
	"log/slog"
	"math"

	"github.com/mmynk/splitledger/internal/models"
)

// Transaction is a transfer instruction from a debtor to a creditor.
type Transaction struct {
	From   models.UserID
	To     models.UserID
	Amount float64
}

// MatchResult is the outcome of a matching run.
type MatchResult struct {
	Transactions []Transaction

	// Residual is the balance left unmatched once either side ran out.
	// Anything above Tolerance means the input did not net to zero.
	Residual float64
}

// Match turns net balances into settlement transactions.
//
// Algorithm (greedy, O(n log n)):
//   - ignore balances within Tolerance of zero
//   - keep creditors and debtors in two max-heaps keyed by amount owed/owing
//   - repeatedly settle the largest debtor against the largest creditor for the
//     smaller of the two amounts, pushing back whatever remains above Tolerance
//
// Every step exhausts at least one party, so at most creditors+debtors-1
// transactions are produced. The result is not guaranteed to be the minimum
// possible number of transfers.
func Match(balances Balances) []Transaction {
	return MatchBalances(balances).Transactions
}

// MatchBalances is Match with the residual exposed. A residual above Tolerance
// is logged as a data-integrity warning.
func MatchBalances(balances Balances) MatchResult {
	creditors := &partyHeap{}
	debtors := &partyHeap{}

	for id, b := range balances {
		switch {
		case b > Tolerance:
			*creditors = append(*creditors, party{id: id, amount: b})
		case b < -Tolerance:
			*debtors = append(*debtors, party{id: id, amount: -b})
		}
	}
	heap.Init(creditors)
	heap.Init(debtors)

	var txs []Transaction
	for creditors.Len() > 0 && debtors.Len() > 0 {
		c := heap.Pop(creditors).(party)
		d := heap.Pop(debtors).(party)

		amount := math.Min(c.amount, d.amount)
		if c.id != d.id && amount > Tolerance {
			txs = append(txs, Transaction{From: d.id, To: c.id, Amount: amount})
		}

		if rest := c.amount - amount; rest > Tolerance {
			heap.Push(creditors, party{id: c.id, amount: rest})
		}
		if rest := d.amount - amount; rest > Tolerance {
			heap.Push(debtors, party{id: d.id, amount: rest})
		}
	}

	result := MatchResult{
		Transactions: txs,
		Residual:     creditors.sum() + debtors.sum(),
	}
	if result.Residual > Tolerance {
		slog.Warn("Settlement balances do not net to zero",
			"residual", result.Residual,
			"unmatched_creditors", creditors.Len(),
			"unmatched_debtors", debtors.Len(),
		)
	}
	return result
}

type party struct {
	id     models.UserID
	amount float64
}

// partyHeap is a max-heap on amount. Equal amounts are ordered by user ID so
// repeated runs over the same balances produce the same transactions.
type partyHeap []party

func (h partyHeap) Len() int { return len(h) }

func (h partyHeap) Less(i, j int) bool {
	if h[i].amount != h[j].amount {
		return h[i].amount > h[j].amount
	}
	return h[i].id < h[j].id
}

func (h partyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *partyHeap) Push(x any) { *h = append(*h, x.(party)) }

func (h *partyHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func (h partyHeap) sum() float64 {
	var s float64
	for _, p := range h {
		s += p.amount
	}
	return s
}
