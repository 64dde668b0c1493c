package ginauth

// Option configures the Gin adapter.
type Option func(*ginConfig)

// WithIdentityKey changes the Gin context key the identity is stored under.
func WithIdentityKey(key string) Option {
	return func(config *ginConfig) {
		config.identityKey = key
	}
}
