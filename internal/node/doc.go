// Package node implements the climate node's device control core.
//
// The core keeps three independently failing concerns in step with a single
// publish/suspend toggle:
//   - the network link and the MQTT bus connection (Supervisor)
//   - operator commands from the local console and the bus (Dispatcher)
//   - periodic sampling and publishing of readings (Publisher)
//
// A Scheduler drives them in a fixed order once per tick:
//
//	local commands → connectivity poll → bus commands → sample/publish or idle
//
// # Connectivity
//
// The supervisor models the bus as an explicit state machine
// (Disconnected → Connecting → Connected) polled without blocking. A pending
// connection attempt never stalls local command handling; failed attempts
// are retried after a fixed interval.
//
// # Control State
//
// ControlState.Active changes only when a start or stop command is
// dispatched. Connectivity changes never touch it. A reading is published
// only while the node is active and the bus is connected.
//
// # Thread Safety
//
// The tick loop runs on one goroutine. Bus messages arrive on the MQTT
// client's goroutine and are queued for the next tick. Status accessors are
// safe to call from other goroutines (the HTTP status API).
package node
