// Package lookupcache persists decoded lookup results in a bbolt file,
// so repeated lookups of the same networks skip the database walk and
// decode entirely.
//
// Results are grouped into one bucket per database build. The bucket name
// is derived from the database metadata, so swapping in a newer build
// naturally starts a fresh bucket; Prune drops the leftovers.
package lookupcache

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.etcd.io/bbolt"

	"github.com/mmdbtools/mmdbval"
	"github.com/mmdbtools/mmdbval/mmdbfile"
)

type Cache struct {
	bdb  *bbolt.DB
	logf func(format string, args ...any)
}

type Options struct {
	Logf      func(format string, args ...any)
	IsTesting bool
}

func Open(path string, opt Options) (*Cache, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
	}

	bdb, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, fmt.Errorf("lookupcache: %w", err)
	}
	logf := opt.Logf
	if logf == nil {
		logf = func(format string, args ...any) {}
	}
	return &Cache{bdb: bdb, logf: logf}, nil
}

func (c *Cache) Close() error {
	return c.bdb.Close()
}

// bucketName derives a stable per-build bucket name from the metadata
// fields that change between builds.
func bucketName(meta mmdbfile.Metadata) []byte {
	var h xxhash.Digest
	fmt.Fprintf(&h, "%s\x00%d\x00%d\x00%d", meta.DatabaseType, meta.BuildEpoch, meta.NodeCount, meta.RecordSize)
	return []byte(fmt.Sprintf("%s-%016x", meta.DatabaseType, h.Sum64()))
}

// ForDatabase returns the cache section for one database build, creating
// its bucket on first use.
func (c *Cache) ForDatabase(meta mmdbfile.Metadata) (*Section, error) {
	name := bucketName(meta)
	err := c.bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(name)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("lookupcache: %w", err)
	}
	return &Section{cache: c, name: name}, nil
}

// Prune deletes the buckets of every database build not listed in keep.
func (c *Cache) Prune(keep ...mmdbfile.Metadata) error {
	kept := make(map[string]bool, len(keep))
	for _, meta := range keep {
		kept[string(bucketName(meta))] = true
	}
	var pruned []string
	err := c.bdb.Update(func(tx *bbolt.Tx) error {
		pruned = pruned[:0]
		err := tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if !kept[string(name)] {
				pruned = append(pruned, string(name))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, name := range pruned {
			if err := tx.DeleteBucket([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("lookupcache: prune: %w", err)
	}
	for _, name := range pruned {
		c.logf("lookupcache: pruned stale bucket %s", name)
	}
	return nil
}

// Section is the cache for one database build.
type Section struct {
	cache *Cache
	name  []byte
}

// Get returns the cached value tree for a network, or ok == false on a
// miss. A corrupted cache row is treated as a miss and deleted.
func (s *Section) Get(network netip.Prefix) (mmdbval.Value, bool, error) {
	key := []byte(network.String())
	var raw []byte
	err := s.cache.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.name)
		if b == nil {
			// Pruned out from under us; every row is a miss.
			return nil
		}
		if data := b.Get(key); data != nil {
			raw = append(raw, data...) // data is only valid inside the tx
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("lookupcache: %w", err)
	}
	if raw == nil {
		return nil, false, nil
	}

	v, err := mmdbval.UnmarshalMsgpack(raw)
	if err != nil {
		s.cache.logf("lookupcache: dropping corrupted row %s: %v", key, err)
		derr := s.cache.bdb.Update(func(tx *bbolt.Tx) error {
			b := tx.Bucket(s.name)
			if b == nil {
				// Another reader already pruned or cleaned it up.
				return nil
			}
			return b.Delete(key)
		})
		if derr != nil {
			return nil, false, fmt.Errorf("lookupcache: %w", derr)
		}
		return nil, false, nil
	}
	return v, true, nil
}

// Put stores the decoded value tree for a network.
func (s *Section) Put(network netip.Prefix, v mmdbval.Value) error {
	raw, err := mmdbval.MarshalMsgpack(v)
	if err != nil {
		return fmt.Errorf("lookupcache: %w", err)
	}
	err = s.cache.bdb.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.name)
		if err != nil {
			return err
		}
		return b.Put([]byte(network.String()), raw)
	})
	if err != nil {
		return fmt.Errorf("lookupcache: %w", err)
	}
	return nil
}
