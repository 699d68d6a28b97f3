package workflow

import (
	"context"
	"sync"
)

// MemoryLedger is an in-process Ledger. It is safe for concurrent use but is
// only correct for a single POS instance.
type MemoryLedger struct {
	mu     sync.Mutex
	orders map[string][]string
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{orders: make(map[string][]string)}
}

func (l *MemoryLedger) Approve(_ context.Context, orderName, key string) (Approval, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	approvers := l.orders[orderName]
	for _, a := range approvers {
		if a == key {
			return Approval{Count: len(approvers), Approvers: append([]string(nil), approvers...)}, nil
		}
	}
	approvers = append(approvers, key)
	l.orders[orderName] = approvers
	return Approval{Count: len(approvers), Approvers: append([]string(nil), approvers...), Recorded: true}, nil
}
