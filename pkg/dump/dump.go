// Package dump writes raw upstream response bodies to disk.
//
// A dump is one-shot: each fetch may write its body once, for inspection or
// for building test fixtures. Nothing is ever read back to answer a request.
//
// File names are derived from the source id and a hash of the request
// parameters, so repeating the same query overwrites the same file:
//
//	<dir>/<source>/<hash[:2]>/<hash[2:16]>.json
package dump

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Sink receives raw bodies. Write returns the location written, if any.
type Sink interface {
	Write(ctx context.Context, source, key string, body []byte) (string, error)
}

// Null discards every body.
type Null struct{}

// Write does nothing.
func (Null) Write(context.Context, string, string, []byte) (string, error) { return "", nil }

// Hash computes the SHA-256 of data as 64 hex characters.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Key builds a stable key from an operation name and its parameters.
func Key(op string, params any) string {
	data, _ := json.Marshal(params)
	return fmt.Sprintf("%s:%s", op, Hash(data))
}

var (
	_ Sink = Null{}
	_ Sink = (*Dir)(nil)
)
