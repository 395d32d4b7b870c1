package scheduler

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/lexidb/lexidb/pkg/index"
	"github.com/lexidb/lexidb/pkg/indexing"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/search/filter"
	"github.com/lexidb/lexidb/pkg/types"
)

// buildOperations turns tasks into the indexing.Operations the pipeline
// expects, resolving a documentDeletionByFilter's filter expression to
// concrete ids against tx's snapshot before the pipeline ever sees it
// (pkg/indexing only ever deletes by already-resolved id).
func buildOperations(tx *kv.WriteTx, idx *index.Index, tasks []types.Task) ([]indexing.Operation, error) {
	ops := make([]indexing.Operation, 0, len(tasks))
	for _, t := range tasks {
		op := indexing.Operation{TaskUID: t.UID, Kind: t.Kind}
		switch t.Kind {
		case types.TaskKindDocumentAdditionOrUpdate:
			docs, err := decodeDocuments(t.Details)
			if err != nil {
				return nil, err
			}
			op.Documents = docs
		case types.TaskKindDocumentDeletion:
			ids, err := decodeStringSlice(t.Details, "ids")
			if err != nil {
				return nil, err
			}
			op.DeleteIDs = ids
		case types.TaskKindDocumentDeletionByFilter:
			ids, err := resolveFilterDeletion(tx, idx, t)
			if err != nil {
				return nil, err
			}
			op.DeleteIDs = ids
		case types.TaskKindSettingsUpdate:
			settings, err := decodeSettings(t.Details)
			if err != nil {
				return nil, err
			}
			op.Settings = settings
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func resolveFilterDeletion(tx *kv.WriteTx, idx *index.Index, t types.Task) ([]string, error) {
	expr, _ := t.Details["filter"].(string)
	if expr == "" {
		return nil, fmt.Errorf("documentDeletionByFilter: missing filter")
	}
	parsed, err := filter.Parse(expr)
	if err != nil {
		return nil, err
	}
	settings, err := idx.SettingsTx(&tx.ReadTx)
	if err != nil {
		return nil, err
	}
	universe, err := idx.AllDocumentIDs(&tx.ReadTx)
	if err != nil {
		return nil, err
	}
	matched, err := filter.Eval(&tx.ReadTx, idx, settings, parsed, universe)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, matched.GetCardinality())
	for _, internalID := range matched.ToArray() {
		if ext, ok := idx.ExternalID(&tx.ReadTx, internalID); ok {
			ids = append(ids, ext)
		}
	}
	return ids, nil
}

// decodeDocuments, decodeStringSlice and decodeSettings round-trip a
// Task.Details value back through JSON: Details is a loosely typed bag
// that already went through an encode/decode cycle in pkg/queue, so a
// nested "documents" entry arrives as []any/map[string]any rather than
// []types.Document. Re-marshaling and decoding into the concrete type
// is simpler and less error-prone than a hand-rolled type-assertion
// walk over the bag.
func decodeDocuments(details map[string]any) ([]types.Document, error) {
	raw, ok := details["documents"]
	if !ok {
		return nil, fmt.Errorf("documentAdditionOrUpdate: missing documents")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var docs []types.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func decodeStringSlice(details map[string]any, key string) ([]string, error) {
	raw, ok := details[key]
	if !ok {
		return nil, fmt.Errorf("documentDeletion: missing %s", key)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeSettings(details map[string]any) (types.Settings, error) {
	raw, ok := details["settings"]
	if !ok {
		return types.Settings{}, fmt.Errorf("settingsUpdate: missing settings")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return types.Settings{}, err
	}
	var s types.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return types.Settings{}, err
	}
	return s, nil
}

func decodeUint64Slice(details map[string]any, key string) ([]uint64, error) {
	raw, ok := details[key]
	if !ok {
		return nil, fmt.Errorf("missing %s", key)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var out []uint64
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
