package cache

import (
	"context"
	"time"
)

// Null is a cache that never stores anything.
type Null struct{}

var _ Cache = Null{}

// NewNull returns a disabled cache.
func NewNull() Cache { return Null{} }

func (Null) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Null) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Null) Delete(context.Context, string) error                     { return nil }
func (Null) Clear(context.Context) error                              { return nil }
func (Null) Close() error                                             { return nil }
