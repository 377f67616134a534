// Package random provides utilities for generating random strings and numbers.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
)

var allSeq [62]rune

func init() {
	for i := 0; i < 10; i++ {
		allSeq[i] = rune('0' + i)
	}
	for i := 0; i < 26; i++ {
		allSeq[10+i] = rune('a' + i)
		allSeq[36+i] = rune('A' + i)
	}
}

// Seq generates a random alphanumeric string of length n.
func Seq(n int) string {
	runes := make([]rune, n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(allSeq))))
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		runes[i] = allSeq[idx.Int64()]
	}
	return string(runes)
}

// Uniform draws a float64 uniformly from the half-open interval [min, max).
func Uniform(min, max float64) float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	// 53 bits of randomness gives a uniform value in [0, 1).
	f := float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
	return min + f*(max-min)
}
