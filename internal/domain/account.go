package domain

// AccountID identifies an account, wallet or PG/PA reference exactly as it
// appears in the source dataset. Comparison is exact string equality.
type AccountID string

func (a AccountID) String() string { return string(a) }

// Counterparty is the receiving side of a transaction. The zero value is a
// cash withdrawal; use Transfer to build a transfer to another account.
type Counterparty struct {
	account AccountID
	set     bool
}

// Cash is the counterparty of a withdrawal.
var Cash = Counterparty{}

// Transfer returns a counterparty that credits the given account.
func Transfer(account AccountID) Counterparty {
	return Counterparty{account: account, set: true}
}

// Account returns the credited account and true, or "" and false for cash.
func (c Counterparty) Account() (AccountID, bool) {
	return c.account, c.set
}

// IsCash reports whether the transaction left the traced chain as cash.
func (c Counterparty) IsCash() bool { return !c.set }

// Is reports whether the counterparty is a transfer to account.
func (c Counterparty) Is(account AccountID) bool {
	return c.set && c.account == account
}

func (c Counterparty) String() string {
	if !c.set {
		return "cash"
	}
	return string(c.account)
}
