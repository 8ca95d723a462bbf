// Package store persists the shared records that carry a request/response
// cycle between a waiting agent process and the responder that eventually
// answers it.
//
// The backing medium is a directory of flat JSON documents, one per record:
//
//	request.json    single-slot pending request (mailbox semantics)
//	response.json   the answer, deleted when consumed
//	status.json     advisory state for external monitors
//	countdown.json  advisory keep-alive deadline for countdown displays
//
// A missing or malformed file is always treated as "record absent", never as
// a failure: another process may be mid-write, or the directory may simply be
// fresh. All record writes go through a write-to-temp-then-rename step so a
// concurrent reader never observes a half-written document. Read-then-delete
// consumption is serialized by the store mutex, which makes consumption
// exactly-once among readers sharing a Store value.
package store
