// Package archivecache holds finished batch archives for a limited time so
// clients can download them after reading the batch report.
package archivecache

import (
	id "certgen/pkg/domain"
)

// Entry is one cached archive.
type Entry struct {
	Owner id.OwnerID
	Name  string
	Data  []byte
}
