package registry

import (
	"fmt"
)

// GenerateID derives a six-hexadecimal-character id from the reversed
// low-order hex digits of a unix timestamp. Reversing puts the
// fast-moving digits first so ids created seconds apart still look
// visually distinct at a glance, at the cost of not being collision-free:
// two containers created in the same second can collide; uniqueness is
// enforced by the (name, id) pair, not the id alone.
func GenerateID(unixSeconds int64) string {
	hex := fmt.Sprintf("%x", unixSeconds)

	reversed := make([]byte, len(hex))
	for i := 0; i < len(hex); i++ {
		reversed[i] = hex[len(hex)-1-i]
	}

	n := 6
	if len(reversed) < n {
		n = len(reversed)
	}
	return string(reversed[:n])
}
