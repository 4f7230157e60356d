package signal

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"hash/fnv"
	"math/rand"

	"assetgate/internal/domain"
)

// ContentSeed derives a deterministic seed from the submitted asset content.
// The SPV registration id and the mock flag are excluded so that a demo
// submission scores identically to its real counterpart.
func ContentSeed(sub domain.Submission) int64 {
	c := sub
	c.ID = ""
	c.SPV.RegistrationID = ""
	c.Mock = false
	c.Status = ""
	c.CreatedAt = zeroTime
	c.UpdatedAt = zeroTime

	// Struct marshaling is field-ordered, so the digest is stable.
	b, err := json.Marshal(c)
	if err != nil {
		return 0
	}
	sum := sha256.Sum256(b)
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

var zeroTime = domain.Submission{}.CreatedAt

// NewRand returns a RNG seeded from the submission content and a per-provider
// salt, so each provider draws an independent but reproducible sequence.
func NewRand(sub domain.Submission, salt string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(salt))
	return rand.New(rand.NewSource(ContentSeed(sub) ^ int64(h.Sum64())))
}
