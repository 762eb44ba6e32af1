/*
Package events provides an in-memory event broker for storefront pub/sub messaging.

The cart store, session handler, checkout coordinator and notification channel
publish events describing what they did. Observers such as the CLI or tests
subscribe and receive every event on a buffered channel.

	Publisher → Event Channel (buffer: 100) → Broadcast Loop → Subscribers (buffer: 50 each)

Publishing never blocks. A full queue or a full subscriber buffer drops the event,
so observers must not rely on the stream for correctness; component state is always
read from the component itself.

Usage:

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	go func() {
		for ev := range sub {
			fmt.Println(ev.Type, ev.Message)
		}
	}()
*/
package events
