// Package fingerprint derives deterministic, collision-resistant identifiers
// for logical action invocations. The fingerprint is the idempotency ledger
// key: two invocations with identical workflow ID, step name, action name,
// and parameters MUST produce the same fingerprint across process restarts,
// so the derivation uses no wall-clock time and no randomness.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Compute returns the hex-encoded SHA-256 fingerprint of a logical action
// invocation. Parameters are canonicalized first so that JSON key order does
// not change the fingerprint. Each field is length-prefixed before hashing so
// that field boundaries cannot be confused ("a"+"bc" vs "ab"+"c").
func Compute(workflowID, stepName, actionName string, params []byte) (string, error) {
	canonical, err := Canonicalize(params)
	if err != nil {
		return "", fmt.Errorf("fingerprint: canonicalize params: %w", err)
	}

	h := sha256.New()
	for _, field := range [][]byte{
		[]byte(workflowID),
		[]byte(stepName),
		[]byte(actionName),
		canonical,
	} {
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(field)))
		h.Write(lenBuf[:])
		h.Write(field)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Canonicalize re-encodes a JSON document into a canonical form: object keys
// sorted, insignificant whitespace removed. Nil or empty input canonicalizes
// to an empty document so "no params" hashes consistently.
func Canonicalize(raw []byte) ([]byte, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []byte{}, nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber() // preserve numeric representation exactly
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("fingerprint: invalid JSON: %w", err)
	}

	// encoding/json marshals map keys in sorted order, which is the
	// canonical property this package relies on.
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: re-encode: %w", err)
	}
	return out, nil
}
