package service

import (
	"crypto/rand"
	"io"
	"math/big"
	"time"
)

const (
	ticketCodePrefix   = "TIC-"
	ticketCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ticketCodeSuffix   = 6

	// maxCodeAttempts bounds collision retries when picking a fresh code.
	maxCodeAttempts = 3000
)

// CodeGenerator produces candidate ticket codes.
type CodeGenerator interface {
	Next() (string, error)
}

// RandomCodeGenerator yields TIC-YYYYMMDD-XXXXXX codes from a cryptographic source.
type RandomCodeGenerator struct {
	now    func() time.Time
	random io.Reader
}

// NewCodeGenerator uses the wall clock and crypto/rand.
func NewCodeGenerator() *RandomCodeGenerator {
	return &RandomCodeGenerator{now: time.Now, random: rand.Reader}
}

// Next returns a candidate code; uniqueness is the caller's concern.
func (g *RandomCodeGenerator) Next() (string, error) {
	buf := make([]byte, 0, len(ticketCodePrefix)+9+ticketCodeSuffix)
	buf = append(buf, ticketCodePrefix...)
	buf = g.now().AppendFormat(buf, "20060102")
	buf = append(buf, '-')

	limit := big.NewInt(int64(len(ticketCodeAlphabet)))
	for range ticketCodeSuffix {
		n, err := rand.Int(g.random, limit)
		if err != nil {
			return "", err
		}
		buf = append(buf, ticketCodeAlphabet[n.Int64()])
	}
	return string(buf), nil
}
