package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

const keyPrefix = "rl"

// Key builds the counter key for a policy, tenant and fixed window:
// rl:{policy}:{tenantID}:{windowID}.
func Key(policy, tenantID string, windowID int64) string {
	var b strings.Builder
	b.Grow(len(keyPrefix) + len(policy) + len(tenantID) + 24)
	b.WriteString(keyPrefix)
	b.WriteByte(':')
	b.WriteString(policy)
	b.WriteByte(':')
	b.WriteString(tenantID)
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(windowID, 10))
	return b.String()
}

// Window returns the fixed window id containing t and the time that window ends.
func Window(t time.Time, window time.Duration) (id int64, resetAt time.Time) {
	size := window.Nanoseconds()
	id = t.UnixNano() / size
	return id, time.Unix(0, (id+1)*size)
}
