// Package nats carries frames, control requests and status between the
// producer and its clients over an embedded NATS broker.
//
// # Architecture
//
//   - Server: embedded broker started by remotecam serve
//   - FramePublisher / FrameSubscriber: best-effort frame broadcast with a
//     drop-oldest queue per subscriber
//   - ControlInbox / ControlClient: strict request/reply control channel
//   - StatusForwarder: producer events from the event bus to NATS
//
// # Subject Hierarchy
//
//	remotecam.{camera}.frames    # frames, Frame-Meta header + raw body (producer → clients)
//	remotecam.{camera}.control   # control request/reply (clients → producer)
//	remotecam.{camera}.status    # phase and settings changes (producer → clients)
//
// Core NATS only, no JetStream. Frames are not persisted.
//
// # Debugging with nats CLI
//
// Watch status changes:
//
//	nats sub "remotecam.*.status"
//
// Count frames without printing bodies:
//
//	nats sub "remotecam.default.frames" --headers-only
//
// Send a control request:
//
//	nats req "remotecam.default.control" '{"request":"get_status"}'
//	nats req "remotecam.default.control" '{"request":"set_exposure","exposure":20}'
//	nats req "remotecam.default.control" '{"request":"set_resolution","width":640,"height":480}'
//
// Check server info and connected clients:
//
//	nats server info
package nats
