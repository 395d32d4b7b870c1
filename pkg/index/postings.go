package index

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

// PostingStore is one of the word/facet sub-stores whose values are
// roaring-bitmap-encoded InternalDocID sets (§3's posting entries).
type PostingStore struct {
	bucket []byte
}

var (
	WordDocids              = PostingStore{bucketWordDocids}
	WordPrefixDocids        = PostingStore{bucketWordPrefixDocids}
	WordPairProximityDocids = PostingStore{bucketWordPairProximityDocids}
	WordPrefixPairProximity = PostingStore{bucketWordPrefixPairProximity}
	WordPositionDocids      = PostingStore{bucketWordPositionDocids}
	FieldIDWordDocids       = PostingStore{bucketFieldIDWordDocids}
	FacetStringDocids       = PostingStore{bucketFacetStringDocids}
	FacetNumberDocids       = PostingStore{bucketFacetNumberDocids}
)

// Get decodes the bitmap stored at key, or an empty bitmap if absent.
func (ps PostingStore) Get(tx *kv.ReadTx, key []byte) (*roaring.Bitmap, error) {
	data := tx.Bucket(ps.bucket).Get(key)
	bm := roaring.New()
	if data == nil {
		return bm, nil
	}
	if _, err := bm.FromBuffer(data); err != nil {
		return nil, err
	}
	return bm, nil
}

// ApplyDelta folds adds/removes into the bitmap at key following §4.3
// phase 5: new = (old ∪ adds) \ removes; an empty result deletes the
// key rather than storing an empty bitmap.
func (ps PostingStore) ApplyDelta(tx *kv.WriteTx, key []byte, adds, removes *roaring.Bitmap) error {
	bm, err := ps.Get(&tx.ReadTx, key)
	if err != nil {
		return err
	}
	if adds != nil {
		bm.Or(adds)
	}
	if removes != nil {
		bm.AndNot(removes)
	}
	b := tx.Bucket(ps.bucket)
	if bm.IsEmpty() {
		return b.Delete(key)
	}
	data, err := bm.ToBytes()
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// Set overwrites the bitmap stored at key with bm, or deletes key if bm is
// nil or empty. Used by §4.3 phase 6 (prefix maintenance), which recomputes
// a materialized prefix wholesale rather than folding a delta into it.
func (ps PostingStore) Set(tx *kv.WriteTx, key []byte, bm *roaring.Bitmap) error {
	b := tx.Bucket(ps.bucket)
	if bm == nil || bm.IsEmpty() {
		return b.Delete(key)
	}
	data, err := bm.ToBytes()
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// Delete removes key outright.
func (ps PostingStore) Delete(tx *kv.WriteTx, key []byte) error {
	return tx.Bucket(ps.bucket).Delete(key)
}

// Range iterates every key under prefix in order, decoding each value's
// bitmap, stopping early if fn returns false.
func (ps PostingStore) Range(tx *kv.ReadTx, prefix []byte, fn func(key []byte, bm *roaring.Bitmap) bool) error {
	var rangeErr error
	tx.Bucket(ps.bucket).Range(prefix, func(k, v []byte) bool {
		bm := roaring.New()
		if _, err := bm.FromBuffer(v); err != nil {
			rangeErr = err
			return false
		}
		return fn(k, bm)
	})
	return rangeErr
}

// WordKey builds the posting key for a single word.
func WordKey(word string) []byte { return []byte(word) }

// PairProximityKey builds the composite key for word_pair_proximity_docids
// and word_prefix_pair_proximity_docids: (w1, w2, proximity).
func PairProximityKey(w1, w2 string, proximity uint8) []byte {
	return kv.JoinKey([]byte(w1), []byte(w2), []byte{proximity})
}

// PositionKey builds the composite key for word_position_docids:
// (word, position).
func PositionKey(word string, position uint16) []byte {
	return kv.JoinKey([]byte(word), kv.BigEndianUint32(uint32(position)))
}

// FieldWordKey builds the composite key for field_id_word_docids:
// (word, fieldId).
func FieldWordKey(word string, fieldID types.FieldID) []byte {
	return kv.JoinKey([]byte(word), kv.BigEndianUint32(uint32(fieldID)))
}

// FacetStringKey builds the composite key for facet_string_docids:
// (fieldId, normalizedValue).
func FacetStringKey(fieldID types.FieldID, normalizedValue string) []byte {
	return kv.JoinKey(kv.BigEndianUint32(uint32(fieldID)), []byte(normalizedValue))
}

// FacetNumberKey builds the composite key for facet_number_docids:
// (fieldId, f64), bit-flipped so IEEE-754 byte order matches numeric
// order for both positive and negative values.
func FacetNumberKey(fieldID types.FieldID, value float64) []byte {
	return kv.JoinKey(kv.BigEndianUint32(uint32(fieldID)), encodeOrderedFloat(value))
}

func encodeOrderedFloat(f float64) []byte {
	bits := math.Float64bits(f)
	if bits&signBit != 0 {
		bits = ^bits
	} else {
		bits |= signBit
	}
	return kv.BigEndianUint64(bits)
}

// DecodeOrderedFloat reverses encodeOrderedFloat, for callers (pkg/search's
// filter evaluator) that range-scan facet_number_docids and need back the
// original value to compare against a query threshold.
func DecodeOrderedFloat(b []byte) float64 {
	bits := kv.Uint64BigEndian(b)
	if bits&signBit != 0 {
		bits &^= signBit
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}

const signBit = uint64(1) << 63
