package echoauth

// Option configures the Echo adapter.
type Option func(*echoConfig)

// WithIdentityKey changes the Echo context key the identity is stored under.
func WithIdentityKey(key string) Option {
	return func(config *echoConfig) {
		config.identityKey = key
	}
}
