package filter

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lexidb/lexidb/pkg/index"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

// Eval evaluates expr against tx's facet stores and returns the matching
// InternalDocID bitmap. universe is the full set of live document ids,
// needed to compute NOT/!= as a complement. settings.FilterableAttributes
// gates which fields a filter may reference.
func Eval(tx *kv.ReadTx, idx *index.Index, settings types.Settings, expr Expr, universe *roaring.Bitmap) (*roaring.Bitmap, error) {
	if expr == nil {
		return universe.Clone(), nil
	}
	if err := validateAttributes(expr, settings.FilterableAttributes); err != nil {
		return nil, err
	}
	return eval(tx, idx, expr, universe)
}

func eval(tx *kv.ReadTx, idx *index.Index, expr Expr, universe *roaring.Bitmap) (*roaring.Bitmap, error) {
	switch t := expr.(type) {
	case And:
		left, err := eval(tx, idx, t.Left, universe)
		if err != nil {
			return nil, err
		}
		right, err := eval(tx, idx, t.Right, universe)
		if err != nil {
			return nil, err
		}
		return roaring.And(left, right), nil
	case Or:
		left, err := eval(tx, idx, t.Left, universe)
		if err != nil {
			return nil, err
		}
		right, err := eval(tx, idx, t.Right, universe)
		if err != nil {
			return nil, err
		}
		return roaring.Or(left, right), nil
	case Not:
		inner, err := eval(tx, idx, t.Inner, universe)
		if err != nil {
			return nil, err
		}
		return roaring.AndNot(universe, inner), nil
	case Compare:
		return evalCompare(tx, idx, t, universe)
	case In:
		return evalIn(tx, idx, t)
	case Exists:
		return evalExists(tx, idx, t, universe)
	default:
		return nil, fmt.Errorf("filter: unhandled expression %T", expr)
	}
}

func fieldBitmap(tx *kv.ReadTx, idx *index.Index, field string, v Value) (*roaring.Bitmap, error) {
	fieldID, ok := idx.FieldIDIfExists(tx, field)
	if !ok {
		return roaring.New(), nil
	}
	if v.IsNumber {
		return index.FacetNumberDocids.Get(tx, index.FacetNumberKey(fieldID, v.Num))
	}
	return index.FacetStringDocids.Get(tx, index.FacetStringKey(fieldID, v.Str))
}

func evalCompare(tx *kv.ReadTx, idx *index.Index, c Compare, universe *roaring.Bitmap) (*roaring.Bitmap, error) {
	switch c.Op {
	case "=":
		return fieldBitmap(tx, idx, c.Field, c.Value)
	case "!=":
		eq, err := fieldBitmap(tx, idx, c.Field, c.Value)
		if err != nil {
			return nil, err
		}
		return roaring.AndNot(universe, eq), nil
	case "<", "<=", ">", ">=":
		return evalNumericRange(tx, idx, c)
	default:
		return nil, fmt.Errorf("filter: unsupported operator %q", c.Op)
	}
}

func evalNumericRange(tx *kv.ReadTx, idx *index.Index, c Compare) (*roaring.Bitmap, error) {
	if !c.Value.IsNumber {
		return nil, fmt.Errorf("filter: %s requires a numeric value", c.Op)
	}
	fieldID, ok := idx.FieldIDIfExists(tx, c.Field)
	if !ok {
		return roaring.New(), nil
	}
	prefix := kv.BigEndianUint32(uint32(fieldID))
	result := roaring.New()
	err := index.FacetNumberDocids.Range(tx, prefix, func(key []byte, bm *roaring.Bitmap) bool {
		value := index.DecodeOrderedFloat(key[len(prefix)+1:])
		matches := false
		switch c.Op {
		case "<":
			matches = value < c.Value.Num
		case "<=":
			matches = value <= c.Value.Num
		case ">":
			matches = value > c.Value.Num
		case ">=":
			matches = value >= c.Value.Num
		}
		if matches {
			result.Or(bm)
		}
		return true
	})
	return result, err
}

func evalIn(tx *kv.ReadTx, idx *index.Index, in In) (*roaring.Bitmap, error) {
	result := roaring.New()
	for _, v := range in.Values {
		bm, err := fieldBitmap(tx, idx, in.Field, v)
		if err != nil {
			return nil, err
		}
		result.Or(bm)
	}
	return result, nil
}

func evalExists(tx *kv.ReadTx, idx *index.Index, e Exists, universe *roaring.Bitmap) (*roaring.Bitmap, error) {
	fieldID, ok := idx.FieldIDIfExists(tx, e.Field)
	if !ok {
		if e.Negate {
			return universe.Clone(), nil
		}
		return roaring.New(), nil
	}
	prefix := kv.BigEndianUint32(uint32(fieldID))
	present := roaring.New()
	if err := index.FacetStringDocids.Range(tx, prefix, func(key []byte, bm *roaring.Bitmap) bool {
		present.Or(bm)
		return true
	}); err != nil {
		return nil, err
	}
	if err := index.FacetNumberDocids.Range(tx, prefix, func(key []byte, bm *roaring.Bitmap) bool {
		present.Or(bm)
		return true
	}); err != nil {
		return nil, err
	}
	if e.Negate {
		return roaring.AndNot(universe, present), nil
	}
	return present, nil
}
