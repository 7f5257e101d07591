package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DomainSchema prefixes schema hashes. The version suffix leaves room for a
// future change to the canonical form.
const DomainSchema = "bcnf/schema/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps domain and data from running together.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Canonical returns the text form that Hash is computed over: the relation
// line followed by one dependency per line, in declaration order.
// Dependency order is significant because it drives the decomposition.
func Canonical(s Schema) string {
	var b strings.Builder
	b.WriteString(s.Relation.String())
	for _, fd := range s.Dependencies {
		b.WriteByte('\n')
		b.WriteString(fd.String())
	}
	return b.String()
}

// Hash computes a content-addressed identity for a schema.
// Schemas that parse to the same relation and dependency list hash equally
// regardless of how their source text was spaced or ordered within a set.
func Hash(s Schema) string {
	return hashWithDomain(DomainSchema, []byte(Canonical(s)))
}
