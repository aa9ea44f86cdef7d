// Package otp issues the six-digit codes emailed for verification and
// password reset.
package otp

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

const (
	MinCode = 100000
	MaxCode = 999999

	// DefaultTTL is how long an emailed code stays valid.
	DefaultTTL = 10 * time.Minute
)

var codeSpan = big.NewInt(MaxCode - MinCode + 1)

// NewNumericToken returns a uniformly random integer in [MinCode, MaxCode].
func NewNumericToken() int {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		// crypto/rand.Read is documented never to fail on supported platforms.
		panic(err)
	}
	return MinCode + int(n.Int64())
}

// ExpiryFromNow returns the current time plus d.
func ExpiryFromNow(d time.Duration) time.Time {
	return expiryFrom(time.Now, d)
}

func expiryFrom(now func() time.Time, d time.Duration) time.Time {
	return now().Add(d)
}

// Generator issues one-time tokens. The zero value is not usable; build it
// with NewGenerator. Now and Code are exposed so tests can pin them.
type Generator struct {
	TTL  time.Duration
	Now  func() time.Time
	Code func() int
}

func NewGenerator(ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Generator{TTL: ttl, Now: time.Now, Code: NewNumericToken}
}

// Issue returns a fresh code expiring TTL from now.
func (g *Generator) Issue() models.OneTimeToken {
	return models.OneTimeToken{
		Code:    g.Code(),
		Expires: expiryFrom(g.Now, g.TTL),
	}
}
