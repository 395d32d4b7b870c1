package index

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

// FacetCount is one value and its count within a candidate set.
type FacetCount struct {
	Value string
	Count uint64
}

// FacetDistribution intersects fieldID's facet-string values with
// candidates and returns the top maxValues counts, ordered by count desc
// then value asc (§4.4 step 7, §8 property 9).
func (idx *Index) FacetDistribution(tx *kv.ReadTx, fieldID types.FieldID, candidates *roaring.Bitmap, maxValues int) ([]FacetCount, error) {
	prefix := kv.BigEndianUint32(uint32(fieldID))
	var counts []FacetCount
	err := FacetStringDocids.Range(tx, prefix, func(key []byte, bm *roaring.Bitmap) bool {
		value := string(key[len(prefix)+1:]) // +1 for kv.JoinKey's separator byte
		inter := roaring.And(bm, candidates)
		if inter.IsEmpty() {
			return true
		}
		counts = append(counts, FacetCount{Value: value, Count: inter.GetCardinality()})
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Value < counts[j].Value
	})
	if maxValues > 0 && len(counts) > maxValues {
		counts = counts[:maxValues]
	}
	return counts, nil
}
