package fetch

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewRequestID returns a random UUID, or "<unix-ms base36>-<random base36>"
// when secure randomness is unavailable or fails.
func NewRequestID(cryptoRandom bool, now time.Time) string {
	if cryptoRandom {
		if id, err := uuid.NewRandom(); err == nil {
			return id.String()
		}
	}
	return fallbackRequestID(now)
}

func fallbackRequestID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + strconv.FormatUint(rand.Uint64(), 36)
}
