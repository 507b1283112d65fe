package rpc

import "github.com/vietddude/solgate/internal/core/domain"

// CallOption overrides per-call behavior on the convenience methods.
type CallOption interface {
	apply(domain.Priority) domain.Priority
}

type priorityOption struct {
	p domain.Priority
}

func (o priorityOption) apply(domain.Priority) domain.Priority { return o.p }

// WithPriority overrides a method's default priority class.
func WithPriority(p domain.Priority) CallOption {
	return priorityOption{p: p}
}
