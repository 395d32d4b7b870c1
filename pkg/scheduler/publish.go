package scheduler

import (
	"strconv"

	"github.com/lexidb/lexidb/pkg/events"
	"github.com/lexidb/lexidb/pkg/types"
)

func (s *Scheduler) publish(typ events.EventType, message string, metadata map[string]string) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(&events.Event{Type: typ, Message: message, Metadata: metadata})
}

func (s *Scheduler) publishBatchStarted(batchUID uint64, indexUID string, taskUIDs []uint64) {
	md := map[string]string{"batchUid": strconv.FormatUint(batchUID, 10), "taskCount": strconv.Itoa(len(taskUIDs))}
	if indexUID != "" {
		md["indexUid"] = indexUID
	}
	s.publish(events.EventBatchStarted, "batch started", md)
}

func (s *Scheduler) publishBatchFinished(batch types.Batch) {
	md := map[string]string{
		"batchUid":  strconv.FormatUint(batch.UID, 10),
		"succeeded": strconv.Itoa(sumCounts(batch.Stats.Succeeded)),
		"failed":    strconv.Itoa(sumCounts(batch.Stats.Failed)),
		"canceled":  strconv.Itoa(sumCounts(batch.Stats.Canceled)),
	}
	if len(batch.Stats.IndexUIDs) > 0 {
		md["indexUid"] = batch.Stats.IndexUIDs[0]
	}
	s.publish(events.EventBatchFinished, "batch finished", md)
}

func (s *Scheduler) publishTaskFinished(r taskResult) {
	md := map[string]string{"taskUid": strconv.FormatUint(r.uid, 10), "kind": string(r.kind)}
	typ := events.EventTaskSucceeded
	msg := "task succeeded"
	switch r.status {
	case types.TaskStatusFailed:
		typ = events.EventTaskFailed
		msg = "task failed"
		if r.err != nil {
			md["error"] = r.err.Error()
		}
	case types.TaskStatusCanceled:
		typ = events.EventTaskCanceled
		msg = "task canceled"
	}
	s.publish(typ, msg, md)
}

func sumCounts(m map[types.TaskKind]int) int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}
