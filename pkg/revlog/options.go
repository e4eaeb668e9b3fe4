package revlog

import (
	"github.com/go-mda/mda/pkg/block"
	"github.com/go-mda/mda/pkg/hash"
)

// options mirrors carv2.ReadOptions/WriteOptions' functional-options shape:
// a private struct mutated by public Option funcs, resolved once per call.
type options struct {
	blockSize      int
	strictChaining bool
	hashAlg        hash.Algorithm
}

func defaultOptions() options {
	return options{
		blockSize: block.DefaultSize,
		hashAlg:   hash.SHA1,
	}
}

func resolve(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures Init, Add, and the block splitter they call.
type Option func(*options)

// WithBlockSize overrides the positional chunk size the splitter uses.
// Spec §9 item 2 flags the historical default of 10 as a placeholder that
// production use should raise (>=4096).
func WithBlockSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.blockSize = size
		}
	}
}

// WithStrictChaining switches Add's p1rev computation from the verbatim
// source behavior (spec §4.3 step 8, §9 item 1: reuse the previous
// header's p1rev for every successor after the first) to the standard
// revlog rule of always chaining to the previous header's nodeid.
func WithStrictChaining(strict bool) Option {
	return func(o *options) {
		o.strictChaining = strict
	}
}

// WithHashAlgorithm overrides the multihash algorithm NodeID hashes with.
// Spec §6 fixes this to SHA-1 for the current format version; this option
// exists for forward compatibility and is not expected to be exercised
// against this version's on-disk format, which assumes a 20-byte digest.
func WithHashAlgorithm(alg hash.Algorithm) Option {
	return func(o *options) {
		o.hashAlg = alg
	}
}
