package domain

import "github.com/shopspring/decimal"

// Transaction is one normalized input row.
type Transaction struct {
	Row      int
	Sender   AccountID
	Receiver Counterparty
	Amount   decimal.Decimal
	Bank     string
	IFSC     string
}

// IsWithdrawal reports whether the transaction has no receiving account.
func (t Transaction) IsWithdrawal() bool { return t.Receiver.IsCash() }
