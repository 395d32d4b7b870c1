/*
Package events is an in-memory pub/sub broker for task/batch/index
lifecycle notifications: the scheduler publishes an Event when a batch
starts, when each of its tasks reaches a terminal status, and when the
batch finishes, and any in-process consumer may subscribe to react to
them without polling the queue. Neither the API layer nor the metrics
collector subscribes; the collector polls its Source.

Broadcast is fire-and-forget and non-blocking: Publish never waits on a
subscriber, and a subscriber whose buffered channel is full simply
misses events rather than stalling the scheduler. This makes the broker
suitable for monitoring and live-update streams, not for anything that
requires guaranteed delivery — the task queue itself, not this package,
is the durable record of what happened.

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for ev := range sub {
			fmt.Println(ev.Type, ev.Message)
		}
	}()

	broker.Publish(&events.Event{
		Type:    events.EventTaskSucceeded,
		Message: "task 42 succeeded",
		Metadata: map[string]string{"task_uid": "42", "index_uid": "movies"},
	})
*/
package events
