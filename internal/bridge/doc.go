// Package bridge coordinates a blocking caller with an asynchronous
// responder over the shared record files.
//
// One Bridge serves one record directory and therefore one outstanding
// request/response cycle at a time. The waiting side calls [Bridge.Await],
// which publishes a request, starts a keep-alive emitter, and polls for a
// response correlated by request ID. The responding side (typically another
// process) calls [Bridge.Respond]. Status and countdown records are written
// along the way for external monitors; they never gate the protocol.
//
// Construct a Bridge explicitly and pass it to whatever needs it - there is
// deliberately no package-level instance.
//
// Lifecycle:
//
//	b := bridge.New(store.New(dir))
//	answer, err := b.Await(ctx, bridge.NewRequestID(), 5*time.Minute)
//	// elsewhere: b.Respond(id, "use the staging cluster", false)
//	b.Teardown()
//
// If two Await calls overlap on the same Bridge, the second one's request
// supersedes the first (single-slot mailbox semantics). The records stay
// consistent; the first caller simply polls a stale ID until its deadline.
package bridge
