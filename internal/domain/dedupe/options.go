package dedupe

// Option applies a configuration option to a NameSet.
type Option func(*NameSet)

// WithNormalizer replaces the key function used to compare names.
func WithNormalizer(fn func(string) string) Option {
	return func(s *NameSet) {
		if fn != nil {
			s.normalize = fn
		}
	}
}
