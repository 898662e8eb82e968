package service

import (
	"github.com/shopspring/decimal"

	"github.com/vanshika/paisatrail/internal/domain"
)

// Tracer rebuilds the fixed depth money trail from a victim account.
type Tracer struct {
	// HighWithdrawal is exclusive: withdrawals above it are tagged high.
	HighWithdrawal decimal.Decimal
}

// Trace follows transfers out of victim to Layer 1 accounts, out of each
// Layer 1 account to Layer 2 accounts, and collects cash withdrawals on both
// layers. Each parent keeps one node per receiving account; the first
// transfer funds the node and later ones are kept as repeats. The same
// account may still appear under several parents.
func (t Tracer) Trace(txs []domain.Transaction, victim domain.AccountID) domain.Trace {
	bySender := make(map[domain.AccountID][]domain.Transaction)
	for _, tx := range txs {
		bySender[tx.Sender] = append(bySender[tx.Sender], tx)
	}

	layer1 := t.hops(bySender[victim], victim, victim)
	for i := range layer1 {
		l1 := &layer1[i]
		outgoing := bySender[l1.Account]
		l1.Withdrawals = t.withdrawals(outgoing, 1)
		l1.Children = t.hops(outgoing, l1.Account, victim)
		for j := range l1.Children {
			l2 := &l1.Children[j]
			l2.Withdrawals = t.withdrawals(bySender[l2.Account], 2)
		}
	}

	return domain.Trace{Victim: victim, Layer1: layer1}
}

// hops turns the transfers out of parent into one node per receiver,
// skipping self transfers and transfers back to the victim.
func (t Tracer) hops(outgoing []domain.Transaction, parent, victim domain.AccountID) []domain.LayerNode {
	var nodes []domain.LayerNode
	index := make(map[domain.AccountID]int)
	for _, tx := range outgoing {
		account, ok := tx.Receiver.Account()
		if !ok || account == parent || account == victim {
			continue
		}
		if i, seen := index[account]; seen {
			nodes[i].Repeats = append(nodes[i].Repeats, tx)
			continue
		}
		index[account] = len(nodes)
		nodes = append(nodes, domain.LayerNode{Account: account, Incoming: tx})
	}
	return nodes
}

func (t Tracer) withdrawals(outgoing []domain.Transaction, layer int) []domain.Withdrawal {
	var out []domain.Withdrawal
	for _, tx := range outgoing {
		if !tx.IsWithdrawal() {
			continue
		}
		out = append(out, domain.Withdrawal{
			Transaction: tx,
			Layer:       layer,
			Severity:    domain.ClassifyWithdrawal(tx.Amount, t.HighWithdrawal),
		})
	}
	return out
}
