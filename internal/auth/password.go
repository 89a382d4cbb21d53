package auth

import "golang.org/x/crypto/bcrypt"

// Hasher hashes and verifies passwords with bcrypt at a configured cost.
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher builds a hasher. Out-of-range costs fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	h := &Hasher{cost: cost}
	// Used to spend comparable time when there is no stored digest to compare against.
	if dummy, err := bcrypt.GenerateFromPassword([]byte("account-service-dummy"), cost); err == nil {
		h.dummy = dummy
	}
	return h
}

// Hash hashes a plaintext password with the configured cost.
func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches the stored digest.
func (h *Hasher) Verify(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// VerifyDummy runs a comparison that always fails.
func (h *Hasher) VerifyDummy(password string) {
	if h.dummy == nil {
		return
	}
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
