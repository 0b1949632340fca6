package invoker

import (
	"time"

	"go.uber.org/zap"

	"github.com/ozontech/jrpc/consts"
	"github.com/ozontech/jrpc/report"
)

type Config struct {
	// ShowInternalErrors exposes the text of unexpected method errors to
	// callers. Otherwise they get a generic message and the error is only logged.
	ShowInternalErrors bool
	// MaxBatchSize rejects batches with more elements. 0 means unlimited.
	MaxBatchSize int
	// BatchConcurrency limits requests of one batch running at once.
	// 0 means one goroutine per request.
	BatchConcurrency int
	// MaxBodySize caps payloads read by ProcessReader. 0 means unlimited.
	MaxBodySize int64
	// MaxIntegerDigits caps decimal digits of big.Int params. 0 means unlimited.
	MaxIntegerDigits int

	CacheSize    int
	CacheTTL     time.Duration
	DrainTimeout time.Duration

	ProtoDiscardUnknown   bool
	DisallowUnknownFields bool
}

func DefaultConfig() Config {
	return Config{
		CacheSize:    consts.DefaultCacheSize,
		CacheTTL:     consts.DefaultCacheTTL,
		DrainTimeout: consts.DefaultDrainTimeout,
		MaxBodySize:  consts.DefaultMaxBodySize,

		MaxIntegerDigits: consts.MaxIntegerDigits,
	}
}

type options struct {
	conf     Config
	log      *zap.Logger
	auth     Authorizer
	reporter report.Reporter
}

type Option func(*options)

func WithConfig(conf Config) Option {
	return func(o *options) { o.conf = conf }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithAuthorizer(auth Authorizer) Option {
	return func(o *options) { o.auth = auth }
}

func WithReporter(r report.Reporter) Option {
	return func(o *options) { o.reporter = r }
}
