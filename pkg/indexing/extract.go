package indexing

import (
	"github.com/lexidb/lexidb/pkg/index"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

// storeKind names one bitmap-valued posting sub-store a document's tokens
// or facet values can touch.
type storeKind int

const (
	storeWordDocids storeKind = iota
	storeFieldWordDocids
	storeWordPositionDocids
	storePairProximityDocids
	storeFacetStringDocids
	storeFacetNumberDocids
)

func (k storeKind) postingStore() index.PostingStore {
	switch k {
	case storeWordDocids:
		return index.WordDocids
	case storeFieldWordDocids:
		return index.FieldIDWordDocids
	case storeWordPositionDocids:
		return index.WordPositionDocids
	case storePairProximityDocids:
		return index.WordPairProximityDocids
	case storeFacetStringDocids:
		return index.FacetStringDocids
	case storeFacetNumberDocids:
		return index.FacetNumberDocids
	default:
		panic("indexing: unknown store kind")
	}
}

// proximityWindow bounds how far apart two tokens can be (in token
// positions within one field) before the pipeline stops recording a
// word_pair_proximity_docids entry for them; proximity saturates at 8
// (§3), so pairs further apart than this contribute nothing new.
const proximityWindow = 7

// keySet maps a storeKind to the set of posting keys (as strings, since
// map keys must be comparable) a single document's extracted tokens and
// facet values touch.
type keySet map[storeKind]map[string]struct{}

func newKeySet() keySet {
	return keySet{
		storeWordDocids:          {},
		storeFieldWordDocids:     {},
		storeWordPositionDocids:  {},
		storePairProximityDocids: {},
		storeFacetStringDocids:   {},
		storeFacetNumberDocids:   {},
	}
}

func (ks keySet) add(kind storeKind, key []byte) {
	ks[kind][string(key)] = struct{}{}
}

// extractKeys builds the full set of posting keys doc touches: word,
// field-scoped word, word position, word pair proximity (within a
// document field), and facet string/number keys, following §4.3 phase 3.
func extractKeys(tx *kv.WriteTx, idx *index.Index, settings types.Settings, doc types.Document) (keySet, error) {
	ks := newKeySet()

	for _, field := range searchableFields(doc, settings) {
		v, ok := doc[field]
		if !ok {
			continue
		}
		text, ok := fieldText(v)
		if !ok {
			continue
		}
		fieldID, err := idx.FieldID(tx, field)
		if err != nil {
			return nil, err
		}
		tokens := Tokenize(text, settings)
		for _, tok := range tokens {
			ks.add(storeWordDocids, index.WordKey(tok.Word))
			ks.add(storeFieldWordDocids, index.FieldWordKey(tok.Word, fieldID))
			ks.add(storeWordPositionDocids, index.PositionKey(tok.Word, tok.Position))
		}
		for i := 0; i < len(tokens); i++ {
			for j := i + 1; j < len(tokens); j++ {
				dist := int(tokens[j].Position) - int(tokens[i].Position)
				if dist > proximityWindow {
					break
				}
				proximity := uint8(1 + dist)
				if proximity > 8 {
					proximity = 8
				}
				ks.add(storePairProximityDocids, index.PairProximityKey(tokens[i].Word, tokens[j].Word, proximity))
			}
		}
	}

	facetFields := append([]string{}, settings.FilterableAttributes...)
	for _, attr := range settings.SortableAttributes {
		if !containsString(facetFields, attr) {
			facetFields = append(facetFields, attr)
		}
	}
	for _, field := range facetFields {
		v, ok := doc[field]
		if !ok {
			continue
		}
		fieldID, err := idx.FieldID(tx, field)
		if err != nil {
			return nil, err
		}
		if n, ok := facetNumberValue(v); ok {
			ks.add(storeFacetNumberDocids, index.FacetNumberKey(fieldID, n))
			continue
		}
		for _, s := range facetStringValues(v) {
			ks.add(storeFacetStringDocids, index.FacetStringKey(fieldID, s))
		}
	}

	return ks, nil
}

// diffKeySets computes the symmetric difference between old and updated
// key sets per store kind. A key present in both sets is dropped from
// both adds and removes: PostingStore.ApplyDelta computes
// new = (old ∪ adds) \ removes, so a key the document keeps across an
// update must appear in neither side or the subtract would erase it.
func diffKeySets(old, updated keySet) (adds, removes keySet) {
	adds, removes = newKeySet(), newKeySet()
	for kind, oldKeys := range old {
		newKeys := updated[kind]
		for k := range oldKeys {
			if _, stillPresent := newKeys[k]; !stillPresent {
				removes[kind][k] = struct{}{}
			}
		}
	}
	for kind, newKeys := range updated {
		oldKeys := old[kind]
		for k := range newKeys {
			if _, wasPresent := oldKeys[k]; !wasPresent {
				adds[kind][k] = struct{}{}
			}
		}
	}
	return adds, removes
}
