package types

import "time"

// TaskKind enumerates every mutation the indexing pipeline and the upgrade
// runner know how to apply. One Task always carries exactly one Kind.
type TaskKind string

const (
	TaskKindDocumentAdditionOrUpdate TaskKind = "documentAdditionOrUpdate"
	TaskKindDocumentDeletion         TaskKind = "documentDeletion"
	TaskKindDocumentDeletionByFilter TaskKind = "documentDeletionByFilter"
	TaskKindIndexCreation            TaskKind = "indexCreation"
	TaskKindIndexDeletion            TaskKind = "indexDeletion"
	TaskKindIndexUpdate              TaskKind = "indexUpdate" // primary key change
	TaskKindIndexSwap                TaskKind = "indexSwap"
	TaskKindSettingsUpdate           TaskKind = "settingsUpdate"
	TaskKindDumplessUpgrade          TaskKind = "dumplessUpgrade"
	TaskKindTaskCancelation          TaskKind = "taskCancelation"
	TaskKindTaskDeletion             TaskKind = "taskDeletion"
)

// TaskStatus is the state machine described in §4.5: enqueued moves to
// processing when a batch claims it, then to exactly one terminal state.
type TaskStatus string

const (
	TaskStatusEnqueued   TaskStatus = "enqueued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusSucceeded  TaskStatus = "succeeded"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCanceled   TaskStatus = "canceled"
)

// IsTerminal reports whether s is one a task never leaves.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusSucceeded, TaskStatusFailed, TaskStatusCanceled:
		return true
	default:
		return false
	}
}

// Task is one pending or completed mutation, identified by a monotonic
// TaskUID assigned at enqueue time. The queue keys its durable record on
// big-endian TaskUID so range scans come back in enqueue order.
type Task struct {
	UID        uint64     `json:"uid"`
	IndexUID   string     `json:"indexUid,omitempty"`
	Kind       TaskKind   `json:"type"`
	Status     TaskStatus `json:"status"`
	BatchUID   *uint64    `json:"batchUid,omitempty"`
	CanceledBy *uint64    `json:"canceledBy,omitempty"`

	// Details holds kind-specific parameters (document count, primary key,
	// filter expression, settings diff, ...) as a loosely typed bag; each
	// TaskKind's handler knows which keys it expects.
	Details map[string]any `json:"details,omitempty"`

	Error *TaskError `json:"error,omitempty"`

	Duration   time.Duration `json:"duration,omitempty"`
	EnqueuedAt time.Time     `json:"enqueuedAt"`
	StartedAt  *time.Time    `json:"startedAt,omitempty"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
}

// TaskError records why a task failed, in the same code/message shape as
// the HTTP error body so the two stay consistent.
type TaskError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Batch is the durable record of one transaction that applied a group of
// compatible tasks together. Progress is recorded per task kind so a
// partial failure inside the batch is still visible after the fact.
type Batch struct {
	UID        uint64           `json:"uid"`
	TaskUIDs   []uint64         `json:"taskUids"`
	Progress   BatchProgress    `json:"progress"`
	Stats      BatchStats       `json:"stats"`
	Duration   time.Duration    `json:"duration,omitempty"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

// BatchProgress is a coarse step counter stored on a batch record; the
// scheduler writes it once, when the batch has finished.
type BatchProgress struct {
	Step       string `json:"step"`
	StepsTotal int    `json:"stepsTotal"`
	StepsDone  int    `json:"stepsDone"`
}

// BatchStats totals succeeded/failed/canceled counts per task kind, keyed
// by TaskKind string for JSON stability.
type BatchStats struct {
	TotalTasks   int                `json:"totalTasks"`
	Succeeded    map[TaskKind]int   `json:"succeededByKind,omitempty"`
	Failed       map[TaskKind]int   `json:"failedByKind,omitempty"`
	Canceled     map[TaskKind]int   `json:"canceledByKind,omitempty"`
	IndexUIDs    []string           `json:"indexUids,omitempty"`
}
