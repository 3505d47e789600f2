package obf

import (
	"go.uber.org/zap"

	"github.com/Faultbox/desco/pkg/encoding"
)

// DefaultMaxElements caps any count field read from a file.
const DefaultMaxElements = 1 << 20

type options struct {
	logger       *zap.Logger
	onNode       func(index int)
	decodeString func([]byte) string
	maxElements  int
}

// Option configures Load.
type Option func(*options)

// WithLogger sets the logger used for decode diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNodeObserver registers a callback invoked before each node is decoded.
func WithNodeObserver(fn func(index int)) Option {
	return func(o *options) {
		o.onNode = fn
	}
}

// WithStringDecoder sets how node names and material paths are converted to
// UTF-8. The default is Shift-JIS.
func WithStringDecoder(fn func([]byte) string) Option {
	return func(o *options) {
		if fn != nil {
			o.decodeString = fn
		}
	}
}

// WithMaxElements caps node, group, primitive, vertex and index counts.
// Values <= 0 restore the default.
func WithMaxElements(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = DefaultMaxElements
		}
		o.maxElements = n
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:       zap.NewNop(),
		decodeString: encoding.ShiftJISToUTF8,
		maxElements:  DefaultMaxElements,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
