package zap

// TokenSource supplies the bearer credential attached to every request.
// Token management (login, refresh, storage) lives outside this package.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource for a fixed credential.
type StaticToken string

// Token returns the fixed credential.
func (t StaticToken) Token() string {
	return string(t)
}
