package queue

var (
	bucketTasks      = []byte("tasks")
	bucketByStatus   = []byte("tasks_by_status")
	bucketByIndexUID = []byte("tasks_by_index_uid")
	bucketByKind     = []byte("tasks_by_kind")
	bucketBatches    = []byte("batches")
)

var allBuckets = [][]byte{
	bucketTasks, bucketByStatus, bucketByIndexUID, bucketByKind, bucketBatches,
}

// taskValueVersion is the first byte of every value stored in
// bucketTasks, mirroring local_db.go's BUCKET_TASKS_VERSION convention so
// a future value-format change can be introduced without an upgrade
// rewriting every row.
const taskValueVersion = 1
