package enrich

import (
	"strconv"

	"github.com/zeebo/xxh3"

	"energyetl/internal/records"
)

// IdentityDeduper keeps the first record for every (iso_code, year) pair.
// Later duplicates are dropped and reported through OnDuplicate.
type IdentityDeduper struct {
	OnDuplicate func(records.Key)
}

func (IdentityDeduper) Name() string { return "dedup_identity" }

func (d IdentityDeduper) Apply(t records.Table) records.Table {
	// Buckets hold every key seen under a hash so that a collision never
	// drops a distinct record.
	seen := make(map[uint64][]records.Key, len(t.Records))
	out := make([]records.Record, 0, len(t.Records))

	for _, r := range t.Records {
		k := r.Key()
		h := hashKey(k)
		dup := false
		for _, prev := range seen[h] {
			if prev == k {
				dup = true
				break
			}
		}
		if dup {
			if d.OnDuplicate != nil {
				d.OnDuplicate(k)
			}
			continue
		}
		seen[h] = append(seen[h], k)
		out = append(out, r.Clone())
	}
	return t.WithRecords(out)
}

func hashKey(k records.Key) uint64 {
	b := make([]byte, 0, len(k.ISOCode)+12)
	b = append(b, k.ISOCode...)
	b = append(b, '\x1f')
	b = strconv.AppendInt(b, int64(k.Year), 10)
	return xxh3.Hash(b)
}
