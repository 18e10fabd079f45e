// Package bridge exposes blocking, pull-style producers as cancellable
// streams that a caller can consume under a context.
//
// A Source is the blocking side: its Next call may sit on a network read or
// a pipe for as long as it likes. New and Open run the Source on a single
// pump goroutine and hand every item to the consumer over an unbuffered
// channel, so the producer never runs more than one item ahead of the
// consumer. After each handoff the pump yields the processor.
//
// The opposite direction, feeding a context-aware Receiver into a consumer
// that can only call a blocking Next, is covered by Relay (bounded channel)
// and Materialize (collect everything, then replay).
//
// End of stream is signalled with iterator.Done, like the Google API
// iterators:
//
//	s := bridge.New(ctx, src)
//	defer s.Close()
//	for {
//		item, err := s.Next(ctx)
//		if errors.Is(err, iterator.Done) {
//			break
//		}
//		if err != nil {
//			return err
//		}
//		use(item)
//	}
package bridge
