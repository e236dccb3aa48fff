package custodytest

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
	"github.com/iov-one/custody/x/badge"
)

// SequenceIDs returns a claim token identifier source producing
// 00000000-0000-4000-8000-000000000001, then ...02 and so on. The ids are
// valid version 4 UUIDs but predictable, use it in tests only.
func SequenceIDs() badge.IDSource {
	var (
		mu sync.Mutex
		n  uint64
	)
	return func() (uuid.UUID, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		var u uuid.UUID
		binary.BigEndian.PutUint64(u[8:], n)
		u[6] = 0x40  // version 4
		u[8] |= 0x80 // variant RFC 4122
		return u, nil
	}
}
