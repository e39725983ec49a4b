// Package certid derives certificate identifiers.
package certid

import (
	"strings"
	"time"

	"certgen/internal/catalog"
)

const (
	prefixDLithe   = "DL"
	prefixNxtAlign = "NXT"
)

// Generate returns {prefix}{domainCode}{usn}{MON}{YY}, with no separators.
// nxtAlign (matched case-insensitively) uses "NXT"; every other organization
// uses "DL". The result is not checked for uniqueness.
func Generate(domainCode, usn string, issueDate time.Time, org catalog.OrgKey) string {
	prefix := prefixDLithe
	if strings.EqualFold(string(org), string(catalog.OrgNxtAlign)) {
		prefix = prefixNxtAlign
	}
	var b strings.Builder
	b.Grow(len(prefix) + len(domainCode) + len(usn) + 5)
	b.WriteString(prefix)
	b.WriteString(domainCode)
	b.WriteString(usn)
	b.WriteString(strings.ToUpper(issueDate.Format("Jan")))
	b.WriteString(issueDate.Format("06"))
	return b.String()
}
