package reconcile

// Config is the key policy and chunking section of the application config.
type Config struct {
	CaseSensitive     bool `mapstructure:"case_sensitive" default:"false"`
	TrimWhitespace    bool `mapstructure:"trim_whitespace" default:"true"`
	IgnoreEmptyValues bool `mapstructure:"ignore_empty_values" default:"true"`
	ChunkSize         int  `mapstructure:"chunk_size" default:"1000"`
}

// Options converts the config into engine options.
func (c Config) Options() Options {
	opts := DefaultOptions()
	opts.Key.CaseSensitive = c.CaseSensitive
	opts.Key.TrimWhitespace = c.TrimWhitespace
	opts.Key.IgnoreEmptyValues = c.IgnoreEmptyValues
	if c.ChunkSize > 0 {
		opts.ChunkSize = c.ChunkSize
	}
	return opts
}
