package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/audit-engine/internal/domain"
)

// counterKey holds the last issued audit number.
const counterKey = "audit:id_counter"

// allocateScript increments the counter and clamps it to the floor in one
// atomic step. A missing or tampered-down counter is repaired inside the
// script, so concurrent allocations can never hand out the same number.
var allocateScript = redis.NewScript(`
local floor = tonumber(ARGV[1])
local n = redis.call('INCR', KEYS[1])
if n < floor then
	redis.call('SET', KEYS[1], floor)
	return floor
end
return n
`)

// AuditIDAllocator issues monotonically increasing AR-NNNN ids backed by an
// atomic Redis counter.
type AuditIDAllocator struct {
	rdb *redis.Client
}

// NewAuditIDAllocator creates an allocator on the given Redis client.
func NewAuditIDAllocator(rdb *redis.Client) *AuditIDAllocator {
	return &AuditIDAllocator{rdb: rdb}
}

// NextAuditID allocates the next audit id, e.g. "AR-0120".
// Ids never fall below the floor, even if the persisted counter was lost or
// tampered down.
func (a *AuditIDAllocator) NextAuditID(ctx context.Context) (string, error) {
	n, err := allocateScript.Run(ctx, a.rdb, []string{counterKey}, domain.AuditIDFloor).Int64()
	if err != nil {
		return "", fmt.Errorf("allocate audit number: %w", err)
	}
	return domain.FormatAuditID(n), nil
}
