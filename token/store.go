package token

// Store holds the credential pair and the locally persisted user record.
// Implementations are pure storage: no validation, no network.
type Store interface {
	AccessToken() string
	SetAccessToken(token string) error
	RefreshToken() string
	SetRefreshToken(token string) error
	// User returns the persisted user record, if any. The record is an
	// opaque JSON blob owned by the session layer.
	User() ([]byte, bool)
	SetUser(record []byte) error
	Clear() error
}
