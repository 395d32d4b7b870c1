package indexing

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/lexidb/lexidb/pkg/index"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

// Operation is one task's worth of work for the pipeline to fold into the
// index inside the scheduler's single batch transaction.
type Operation struct {
	TaskUID   uint64
	Kind      types.TaskKind
	Documents []types.Document
	// DeleteIDs names the external ids to remove for a documentDeletion or
	// documentDeletionByFilter task. Filter-to-ids resolution happens
	// upstream (the scheduler, via the query engine's filter parser)
	// before an Operation ever reaches the pipeline: this package only
	// ever deletes by already-resolved id.
	DeleteIDs []string
	Settings  types.Settings
}

// Outcome reports what one Operation accomplished or why it failed.
type Outcome struct {
	TaskUID          uint64
	DocumentsIndexed int
	DocumentsDeleted int
	Err              error
}

// Result collects every task's Outcome from one Pipeline.Run call.
type Result struct {
	Outcomes []Outcome
}

// Pipeline folds a batch of Operations into one index, following the
// decode/diff/extract/merge/apply/prefix-maintain phases of the indexing
// pipeline it generalizes.
type Pipeline struct {
	idx *index.Index
}

// New returns a Pipeline bound to idx.
func New(idx *index.Index) *Pipeline {
	return &Pipeline{idx: idx}
}

// accumulator folds posting-key deltas across every document in the batch,
// standing in for the external-memory sort/merge phase of the system this
// generalizes: here the fold happens in memory, bounded by one batch, since
// writing and later re-reading literal spill files is not attempted.
type accumulator struct {
	adds    map[storeKind]map[string]*roaring.Bitmap
	removes map[storeKind]map[string]*roaring.Bitmap
	words   map[string]struct{}
}

func newAccumulator() *accumulator {
	return &accumulator{
		adds:    make(map[storeKind]map[string]*roaring.Bitmap),
		removes: make(map[storeKind]map[string]*roaring.Bitmap),
		words:   make(map[string]struct{}),
	}
}

func (a *accumulator) fold(dest map[storeKind]map[string]*roaring.Bitmap, kind storeKind, keys map[string]struct{}, docID types.InternalDocID) {
	byKey, ok := dest[kind]
	if !ok {
		byKey = make(map[string]*roaring.Bitmap)
		dest[kind] = byKey
	}
	for k := range keys {
		bm, ok := byKey[k]
		if !ok {
			bm = roaring.New()
			byKey[k] = bm
		}
		bm.Add(uint32(docID))
		if kind == storeWordDocids {
			a.words[k] = struct{}{}
		}
	}
}

func (a *accumulator) addKeys(kind storeKind, keys map[string]struct{}, docID types.InternalDocID) {
	a.fold(a.adds, kind, keys, docID)
}

func (a *accumulator) removeKeys(kind storeKind, keys map[string]struct{}, docID types.InternalDocID) {
	a.fold(a.removes, kind, keys, docID)
}

// apply folds every accumulated add/remove bitmap into its store, one key
// at a time (§4.3 phase 5).
func (a *accumulator) apply(tx *kv.WriteTx) error {
	touched := make(map[storeKind]map[string]struct{})
	for kind, byKey := range a.adds {
		set := touched[kind]
		if set == nil {
			set = make(map[string]struct{})
			touched[kind] = set
		}
		for k := range byKey {
			set[k] = struct{}{}
		}
	}
	for kind, byKey := range a.removes {
		set := touched[kind]
		if set == nil {
			set = make(map[string]struct{})
			touched[kind] = set
		}
		for k := range byKey {
			set[k] = struct{}{}
		}
	}

	for kind, keys := range touched {
		store := kind.postingStore()
		for k := range keys {
			var adds, removes *roaring.Bitmap
			if byKey, ok := a.adds[kind]; ok {
				adds = byKey[k]
			}
			if byKey, ok := a.removes[kind]; ok {
				removes = byKey[k]
			}
			if err := store.ApplyDelta(tx, []byte(k), adds, removes); err != nil {
				return fmt.Errorf("indexing: apply %s: %w", k, err)
			}
		}
	}
	return nil
}

// Run applies every Operation to the index inside tx, one already-open
// write transaction the scheduler opened for the whole batch.
func (p *Pipeline) Run(tx *kv.WriteTx, ops []Operation) (*Result, error) {
	res := &Result{Outcomes: make([]Outcome, 0, len(ops))}
	acc := newAccumulator()
	var docCountDelta int64

	for _, op := range ops {
		var outcome Outcome
		var err error
		switch op.Kind {
		case types.TaskKindDocumentAdditionOrUpdate:
			outcome, err = p.applyAdditions(tx, acc, op, &docCountDelta)
		case types.TaskKindDocumentDeletion, types.TaskKindDocumentDeletionByFilter:
			outcome, err = p.applyDeletions(tx, acc, op, &docCountDelta)
		case types.TaskKindSettingsUpdate:
			outcome.TaskUID = op.TaskUID
			err = p.idx.UpdateSettingsTx(tx, op.Settings)
		default:
			outcome.TaskUID = op.TaskUID
			err = fmt.Errorf("indexing: unsupported task kind %q", op.Kind)
		}
		if err != nil {
			return nil, err
		}
		res.Outcomes = append(res.Outcomes, outcome)
	}

	if err := acc.apply(tx); err != nil {
		return nil, err
	}
	if err := maintainPrefixes(tx, acc.words); err != nil {
		return nil, err
	}
	if len(acc.words) > 0 {
		if err := p.idx.RebuildDictionary(tx); err != nil {
			return nil, err
		}
	}
	if docCountDelta != 0 {
		if err := p.idx.AdjustDocumentCount(tx, docCountDelta); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// applyAdditions decodes, assigns ids, diffs against the previous body (if
// any), and extracts key deltas for every document in op. A malformed
// document (primary key missing, ambiguous, or conflicting) fails the
// whole task: every document is validated before any of them is written,
// matching the "a malformed document fails the task, not the batch" rule.
func (p *Pipeline) applyAdditions(tx *kv.WriteTx, acc *accumulator, op Operation, docCountDelta *int64) (Outcome, error) {
	outcome := Outcome{TaskUID: op.TaskUID}

	meta, err := p.idx.MetaTx(&tx.ReadTx)
	if err != nil {
		return outcome, err
	}

	settings, err := p.idx.SettingsTx(&tx.ReadTx)
	if err != nil {
		return outcome, err
	}

	type resolved struct {
		externalID string
		doc        types.Document
		primaryKey string
	}
	resolvedDocs := make([]resolved, 0, len(op.Documents))

	for _, doc := range op.Documents {
		pk := meta.PrimaryKey
		if pk == "" {
			inferred, ok := types.InferPrimaryKey(doc)
			if !ok {
				outcome.Err = types.ErrPrimaryKeyMissing
				return outcome, nil
			}
			pk = inferred
		}
		externalID, err := doc.PrimaryKeyValue(pk)
		if err != nil {
			outcome.Err = err
			return outcome, nil
		}
		resolvedDocs = append(resolvedDocs, resolved{externalID: externalID, doc: doc, primaryKey: pk})
	}

	for _, rd := range resolvedDocs {
		if err := p.idx.SetPrimaryKeyIfUnset(tx, rd.primaryKey); err != nil {
			return outcome, err
		}

		existing, found, err := p.idx.GetDocument(&tx.ReadTx, rd.externalID)
		if err != nil {
			return outcome, err
		}

		docID, err := p.idx.AssignInternalID(tx, rd.externalID)
		if err != nil {
			return outcome, err
		}

		var oldKeys keySet
		if found {
			oldKeys, err = extractKeys(tx, p.idx, settings, existing)
			if err != nil {
				return outcome, err
			}
		} else {
			oldKeys = newKeySet()
			(*docCountDelta)++
		}

		newKeys, err := extractKeys(tx, p.idx, settings, rd.doc)
		if err != nil {
			return outcome, err
		}

		adds, removes := diffKeySets(oldKeys, newKeys)
		for kind, keys := range adds {
			acc.addKeys(kind, keys, docID)
		}
		for kind, keys := range removes {
			acc.removeKeys(kind, keys, docID)
		}

		if err := p.idx.PutDocument(tx, docID, rd.doc); err != nil {
			return outcome, err
		}
		outcome.DocumentsIndexed++
	}

	return outcome, nil
}

// applyDeletions removes each named document's body, id mapping, and
// posting-list membership.
func (p *Pipeline) applyDeletions(tx *kv.WriteTx, acc *accumulator, op Operation, docCountDelta *int64) (Outcome, error) {
	outcome := Outcome{TaskUID: op.TaskUID}

	settings, err := p.idx.SettingsTx(&tx.ReadTx)
	if err != nil {
		return outcome, err
	}

	for _, externalID := range op.DeleteIDs {
		existing, found, err := p.idx.GetDocument(&tx.ReadTx, externalID)
		if err != nil {
			return outcome, err
		}
		if !found {
			continue
		}
		oldKeys, err := extractKeys(tx, p.idx, settings, existing)
		if err != nil {
			return outcome, err
		}

		docID, _, err := p.idx.PurgeDocument(tx, externalID)
		if err != nil {
			return outcome, err
		}
		for kind, keys := range oldKeys {
			acc.removeKeys(kind, keys, docID)
		}
		(*docCountDelta)--
		outcome.DocumentsDeleted++
	}

	return outcome, nil
}

// prefixThreshold is the minimum number of words sharing a prefix before
// the pipeline materializes a word_prefix_docids entry for it (§4.3
// phase 6). Below this, prefix search falls back to scanning word_docids
// directly.
const prefixThreshold = 50

// maxPrefixLen bounds materialized prefix length; longer prefixes rarely
// pay for themselves in cardinality reduction.
const maxPrefixLen = 4

// maintainPrefixes recomputes the materialized prefix entries touched by
// words added or removed from word_docids in this batch. Only
// word_prefix_docids is maintained here; word_prefix_pair_proximity_docids
// is provisioned in the schema but left unpopulated by this pipeline.
func maintainPrefixes(tx *kv.WriteTx, words map[string]struct{}) error {
	prefixes := make(map[string]struct{})
	for word := range words {
		runes := []rune(word)
		n := maxPrefixLen
		if len(runes)-1 < n {
			n = len(runes) - 1
		}
		for l := 1; l <= n; l++ {
			prefixes[string(runes[:l])] = struct{}{}
		}
	}

	for prefix := range prefixes {
		card := 0
		var union *roaring.Bitmap
		if err := index.WordDocids.Range(&tx.ReadTx, []byte(prefix), func(k []byte, bm *roaring.Bitmap) bool {
			card++
			if union == nil {
				union = bm
			} else {
				union.Or(bm)
			}
			return true
		}); err != nil {
			return err
		}

		if card < prefixThreshold {
			if err := index.WordPrefixDocids.Delete(tx, []byte(prefix)); err != nil {
				return err
			}
			continue
		}
		if err := index.WordPrefixDocids.Set(tx, []byte(prefix), union); err != nil {
			return err
		}
	}
	return nil
}
