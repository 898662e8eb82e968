package service

import "github.com/vanshika/paisatrail/internal/domain"

// InferVictim returns the most frequent sender. Ties go to the account that
// appears first. The result is a heuristic: it assumes txs holds a single
// fraud case already filtered by amount.
func InferVictim(txs []domain.Transaction) (domain.AccountID, error) {
	if len(txs) == 0 {
		return "", ErrEmptyDataset
	}

	counts := make(map[domain.AccountID]int)
	var order []domain.AccountID
	for _, tx := range txs {
		if _, seen := counts[tx.Sender]; !seen {
			order = append(order, tx.Sender)
		}
		counts[tx.Sender]++
	}

	victim := order[0]
	for _, account := range order[1:] {
		if counts[account] > counts[victim] {
			victim = account
		}
	}
	return victim, nil
}
