package domain

import "github.com/shopspring/decimal"

// Severity classifies a withdrawal for rendering.
type Severity string

const (
	SeverityNormal Severity = "normal"
	SeverityHigh   Severity = "high"
)

// ClassifyWithdrawal tags amount as high when it is strictly above threshold.
func ClassifyWithdrawal(amount, threshold decimal.Decimal) Severity {
	if amount.GreaterThan(threshold) {
		return SeverityHigh
	}
	return SeverityNormal
}

// Withdrawal is a cash-out found on a traced account.
type Withdrawal struct {
	Transaction
	Layer    int
	Severity Severity
}

// LayerNode is one hop in the money trail. Children are populated only on
// Layer 1 nodes.
type LayerNode struct {
	Account  AccountID
	Incoming Transaction
	// Repeats holds later transfers from the same parent to Account. They do
	// not spawn branches of their own.
	Repeats     []Transaction
	Withdrawals []Withdrawal
	Children    []LayerNode
}

// Trace is the reconstructed Victim → Layer 1 → Layer 2 → Withdrawal tree.
type Trace struct {
	Victim AccountID
	Layer1 []LayerNode
}

// Withdrawals returns every withdrawal in the trace, Layer 1 entries of a
// branch before the Layer 2 entries below it.
func (t Trace) Withdrawals() []Withdrawal {
	var out []Withdrawal
	for _, l1 := range t.Layer1 {
		out = append(out, l1.Withdrawals...)
		for _, l2 := range l1.Children {
			out = append(out, l2.Withdrawals...)
		}
	}
	return out
}

// HighCount returns the number of high severity withdrawals.
func (t Trace) HighCount() int {
	n := 0
	for _, w := range t.Withdrawals() {
		if w.Severity == SeverityHigh {
			n++
		}
	}
	return n
}

// Layer2Count returns the number of Layer 2 nodes across all branches.
func (t Trace) Layer2Count() int {
	n := 0
	for _, l1 := range t.Layer1 {
		n += len(l1.Children)
	}
	return n
}

// Accounts lists the distinct mule accounts in first-seen order.
func (t Trace) Accounts() []AccountID {
	seen := make(map[AccountID]struct{})
	var out []AccountID
	add := func(a AccountID) {
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	for _, l1 := range t.Layer1 {
		add(l1.Account)
		for _, l2 := range l1.Children {
			add(l2.Account)
		}
	}
	return out
}
