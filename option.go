package bptree

const (
	// DefaultLeafMaxSize and DefaultInternalMaxSize give real workloads a
	// reasonable fan-out; the small worked scenarios in the tests override
	// both to 4 with WithLeafMaxSize/WithInternalMaxSize.
	DefaultLeafMaxSize     = 128
	DefaultInternalMaxSize = 128
	DefaultKeySize         = 8
	DefaultPoolSize        = 256
)

// Options configures a Tree and its buffer pool.
type Options struct {
	comparator      Comparator
	keySize         int
	leafMaxSize     int
	internalMaxSize int
	poolSize        int
	logger          Logger
}

// DefaultOptions returns safe defaults: lexicographic byte comparator,
// 8-byte keys, a 256-frame pool, 128-entry leaf and internal nodes,
// discard logging.
func DefaultOptions() Options {
	return Options{
		comparator:      ByteComparator{},
		keySize:         DefaultKeySize,
		leafMaxSize:     DefaultLeafMaxSize,
		internalMaxSize: DefaultInternalMaxSize,
		poolSize:        DefaultPoolSize,
		logger:          DiscardLogger{},
	}
}

// Option configures Options using the functional options pattern.
type Option func(*Options)

// WithComparator overrides the key comparator. Default is lexicographic
// byte comparison.
//
//goland:noinspection GoUnusedExportedFunction
func WithComparator(cmp Comparator) Option {
	return func(o *Options) {
		o.comparator = cmp
	}
}

// WithKeySize sets the fixed width, in bytes, of every key in the tree.
//
//goland:noinspection GoUnusedExportedFunction
func WithKeySize(n int) Option {
	return func(o *Options) {
		o.keySize = n
	}
}

// WithLeafMaxSize sets the maximum number of entries a leaf holds before
// it splits.
//
//goland:noinspection GoUnusedExportedFunction
func WithLeafMaxSize(n int) Option {
	return func(o *Options) {
		o.leafMaxSize = n
	}
}

// WithInternalMaxSize sets the maximum number of children an internal
// node holds before it splits.
//
//goland:noinspection GoUnusedExportedFunction
func WithInternalMaxSize(n int) Option {
	return func(o *Options) {
		o.internalMaxSize = n
	}
}

// WithPoolSize sets the number of frames in the buffer pool.
//
//goland:noinspection GoUnusedExportedFunction
func WithPoolSize(n int) Option {
	return func(o *Options) {
		o.poolSize = n
	}
}

// WithLogger overrides the logger. Default is DiscardLogger (no-op).
//
//goland:noinspection GoUnusedExportedFunction
func WithLogger(l Logger) Option {
	return func(o *Options) {
		o.logger = l
	}
}

func (o Options) leafMinSize() int {
	return o.leafMaxSize / 2 // ceil((L-1)/2)
}

func (o Options) internalMinSize() int {
	return (o.internalMaxSize + 1) / 2 // ceil(I/2)
}
