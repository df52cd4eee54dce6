// Package ir provides the scalar value model shared by the query set and
// the SQL AST, together with its canonical JSON encoding.
//
// This package has no internal imports. queryset, sqlast and filter all
// depend on it, so it stays the foundational layer.
//
// Key design constraints:
//   - Numbers keep the exact literal text they were decoded from (IRNumber)
//     so a constant renders byte-for-byte as the policy engine sent it
//   - Strings are NFC normalized at the serialization boundary
//   - No HTML escaping in encoded output
//   - Object keys are ordered by UTF-16 code units (RFC 8785)
package ir
