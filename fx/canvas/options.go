package canvas

import "log/slog"

type config struct {
	logger *slog.Logger
}

// Option configures a Canvas.
type Option func(*config)

func defaultConfig() config {
	return config{logger: slog.New(slog.DiscardHandler)}
}

// WithLogger sets the logger used for transmitted transactions and
// transport failures. A nil logger keeps the default, which discards.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

func applyOptions(opts ...Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
