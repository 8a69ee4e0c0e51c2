package dspsim

// Config holds simulator settings.
type Config struct {
	SampleRate float64
	// BlockSize is how many samples Process renders between control updates.
	BlockSize int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the settings of the reference hardware.
func DefaultConfig() Config {
	return Config{
		SampleRate: 48000,
		BlockSize:  256,
	}
}

// WithSampleRate sets the render sample rate.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the control update interval in samples.
func WithBlockSize(blockSize int) Option {
	return func(cfg *Config) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

func applyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
