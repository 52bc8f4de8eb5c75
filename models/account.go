package models

const AccountTypeIncome = "Income"

// Account is a chart-of-accounts entry on the hosted ledger.
type Account struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Chargeable reports whether revenue can be credited to the account.
func (a Account) Chargeable() bool {
	return a.Type == AccountTypeIncome
}
