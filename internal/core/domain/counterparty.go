package domain

// BankLinkage holds the banking credentials and routing data of a counterparty.
// Mutable by operators after onboarding.
type BankLinkage struct {
	BankCode      string `json:"bankCode"`
	Agency        string `json:"agency"`
	Account       string `json:"account"`      // account number without check digit
	AccountDigit  string `json:"accountDigit"` // check digit
	PixKey        string `json:"pixKey"`
	KeystoreFile  string `json:"keystoreFile"` // PKCS#12 file name under the certificate directory
	ClientID      string `json:"clientID"`     // gateway OAuth client id
	ClientSecret  string `json:"-"`
	KeystoreToken string `json:"-"` // password of the PKCS#12 keystore
}

// Counterparty is the legal entity (the fund) on whose behalf charges are
// issued and repurchases settled. Created once at onboarding.
type Counterparty struct {
	CounterpartyID string      `json:"counterpartyID"` // Primary Key (UUID)
	TaxID          string      `json:"taxID"`          // CNPJ, digits only
	Name           string      `json:"name"`
	Bank           BankLinkage `json:"bank"`
	AuditFields
}
