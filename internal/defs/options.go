package defs

import (
	"github.com/roach88/customs/internal/record"
	"github.com/roach88/customs/internal/tasks"
)

type options struct {
	autoSave      bool
	createMissing bool
	codec         record.Codec
	pool          *tasks.Pool
	workers       int
}

func defaultOptions() options {
	return options{
		createMissing: true,
		codec:         record.JSONCodec{},
	}
}

// Option configures a Store.
type Option func(*options)

// WithAutoSave writes dirty streams to storage before every mutation
// returns.
//
// Default: false (call Save explicitly)
func WithAutoSave(on bool) Option {
	return func(o *options) {
		o.autoSave = on
	}
}

// WithCreateMissing treats a stream that does not exist in storage as
// empty instead of failing Open and Fetch with an IOError.
//
// Default: true
func WithCreateMissing(on bool) Option {
	return func(o *options) {
		o.createMissing = on
	}
}

// WithCodec sets the codec of the flat streams.
//
// Default: record.JSONCodec
func WithCodec(c record.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithPool runs async operations on a shared pool. The store does not
// close a pool it did not create.
func WithPool(p *tasks.Pool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithWorkers sets the size of the store's own pool when WithPool is not
// given.
//
// Default: tasks.DefaultWorkers
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}
