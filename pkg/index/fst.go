package index

import (
	"bytes"

	"github.com/lexidb/lexidb/pkg/fst"
	"github.com/lexidb/lexidb/pkg/kv"
)

// Dictionary returns the index's current word dictionary, decoded from the
// single serialized FST blob (§4.2). An index with no words yet returns an
// empty, non-nil Dictionary.
func (idx *Index) Dictionary(tx *kv.ReadTx) (*fst.Dictionary, error) {
	blob := tx.Bucket(bucketFST).Get(fstKey)
	return fst.Load(blob)
}

// RebuildDictionary recomputes the FST from every key currently present in
// word_docids and persists the serialized blob. Phase 6 of §4.3 calls this
// only when the batch's diff touched the set of words.
func (idx *Index) RebuildDictionary(tx *kv.WriteTx) error {
	var words []string
	tx.Bucket(bucketWordDocids).ForEach(func(k, v []byte) bool {
		words = append(words, string(k))
		return true
	})
	blob, err := fst.Build(words)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketFST).Put(fstKey, blob)
}

// PrefixCardinality returns the number of distinct words in word_docids
// beginning with prefix. pkg/indexing's maintainPrefixes does not call
// it; it applies its own prefixThreshold (50) when deciding whether a
// prefix is worth materializing.
func (idx *Index) PrefixCardinality(tx *kv.ReadTx, prefix string) int {
	count := 0
	tx.Bucket(bucketWordDocids).Range([]byte(prefix), func(k, v []byte) bool {
		if bytes.HasPrefix(k, []byte(prefix)) {
			count++
		}
		return true
	})
	return count
}
