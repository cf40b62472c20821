package keyspace

import (
	"github.com/ValentinKolb/zKV/lib/db"
	"github.com/ValentinKolb/zKV/lib/db/hmap"
	"github.com/ValentinKolb/zKV/lib/db/util"
	"github.com/ValentinKolb/zKV/lib/db/zset"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	infoSamples   = 1000 // entries sampled by GetInfo for the size estimate
	entryOverhead = 48   // key header, type tag, value header and hash node
	memberSize    = 64   // rough size of one sorted set member incl. both index nodes
)

// --------------------------------------------------------------------------
// Core keyspace structure
// --------------------------------------------------------------------------

// entry is the record stored per key
type entry struct {
	key  string
	typ  db.ValueType
	str  string
	zset *zset.ZSet
}

// keySpace implements db.KVDB on top of an incrementally rehashing hash index
type keySpace struct {
	index *hmap.Map[*entry]
	zsets int
}

// NewKeySpace creates an empty keyspace
func NewKeySpace() db.KVDB {
	return &keySpace{index: hmap.New[*entry]()}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (ks *keySpace) Set(key string, value string) error {
	if e, ok := ks.lookup(key); ok {
		if e.typ != db.TypeString {
			return db.ErrWrongType
		}
		e.str = value
		return nil
	}

	ks.index.Insert(util.HashString(key), &entry{key: key, typ: db.TypeString, str: value})
	return nil
}

func (ks *keySpace) Get(key string) (string, bool, error) {
	e, ok := ks.lookup(key)
	if !ok {
		return "", false, nil
	}
	if e.typ != db.TypeString {
		return "", false, db.ErrWrongType
	}
	return e.str, true, nil
}

func (ks *keySpace) Delete(key string) bool {
	e, ok := ks.index.Delete(util.HashString(key), func(e *entry) bool {
		return e.key == key
	})
	if !ok {
		return false
	}
	ks.dispose(e)
	return true
}

func (ks *keySpace) Keys(visit func(key string) bool) {
	ks.index.ForEach(func(e *entry) bool {
		return visit(e.key)
	})
}

func (ks *keySpace) Len() int {
	return ks.index.Len()
}

func (ks *keySpace) ZSet(key string, create bool) (*zset.ZSet, error) {
	if e, ok := ks.lookup(key); ok {
		if e.typ != db.TypeZSet {
			return nil, db.ErrWrongType
		}
		return e.zset, nil
	}
	if !create {
		return nil, nil
	}

	e := &entry{key: key, typ: db.TypeZSet, zset: zset.New()}
	ks.index.Insert(util.HashString(key), e)
	ks.zsets++
	return e.zset, nil
}

func (ks *keySpace) GetInfo() db.DatabaseInfo {
	// sample the first entries in index order for the size estimate
	histogram := util.NewSizeHistogram()
	members := 0
	samples := 0
	ks.index.ForEach(func(e *entry) bool {
		switch e.typ {
		case db.TypeString:
			histogram.AddSample(len(e.key) + len(e.str))
		case db.TypeZSet:
			histogram.AddSample(len(e.key) + e.zset.Len()*memberSize)
			members += e.zset.Len()
		}
		samples++
		return samples < infoSamples
	})

	// weighted estimate (60% median, 40% average) as for the value sizes
	perEntry := (histogram.MedianEstimate()*60+histogram.AverageSize()*40)/100 + entryOverhead

	meta := &struct {
		SampledEntries     int                    `json:"sampled_entries"`
		SampledMembers     int                    `json:"sampled_members"`
		BucketDistribution util.DistributionStats `json:"bucket_distribution"`
	}{
		SampledEntries:     samples,
		SampledMembers:     members,
		BucketDistribution: util.NewDistributionStats(ks.index.ChainLengths()),
	}

	return db.DatabaseInfo{
		Keys:      ks.index.Len(),
		ZSets:     ks.zsets,
		SizeBytes: perEntry * ks.index.Len(),
		DbType:    db.ImplKeySpace,
		Rehashing: ks.index.Rehashing(),
		Buckets:   ks.index.Buckets(),
		Metadata:  meta,
	}
}

func (ks *keySpace) Close() error {
	ks.index.ForEach(func(e *entry) bool {
		ks.dispose(e)
		return true
	})
	ks.index.Clear()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (ks *keySpace) lookup(key string) (*entry, bool) {
	return ks.index.Lookup(util.HashString(key), func(e *entry) bool {
		return e.key == key
	})
}

// dispose releases the value of an entry that left the index
func (ks *keySpace) dispose(e *entry) {
	if e.typ == db.TypeZSet {
		e.zset.Clear()
		e.zset = nil
		ks.zsets--
	}
	e.str = ""
}
