// Package schema provides the value types of relational schema design:
// attributes, attribute sets, functional dependencies and relations.
//
// This package contains types, parsing and validation only. The
// normalization algorithms live in internal/normalize; schema imports
// nothing internal.
//
// Key design constraints:
//   - AttributeSet and FD values are immutable. Every set operation
//     returns a new set.
//   - AttributeSet keeps its members sorted, so iteration order is
//     deterministic across runs.
//   - Names are NFC-normalized at parse time; equality is byte equality
//     after normalization.
package schema
