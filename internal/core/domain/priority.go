// Package domain holds the core types shared across the dispatch layer.
package domain

import "fmt"

// Priority controls scheduling order for queued RPC operations.
// Lower values are dispatched first.
type Priority int

const (
	PriorityHigh Priority = iota // trade submission, simulation, blockhash
	PriorityMedium               // confirmation and status polling
	PriorityLow                  // historical and analytics reads
)

// NumPriorities is the number of priority classes.
const NumPriorities = 3

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Valid reports whether p is one of the defined priority classes.
func (p Priority) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}
