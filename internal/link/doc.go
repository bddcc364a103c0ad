// Package link owns the byte-to-message decode loop for a projection
// session: it reads the framed stream from an already-open link (USB bulk
// endpoint handed over by the platform layer, or a TCP socket in wireless
// mode), reassembles frames, and hands each decoded message to the
// dispatcher under its traffic category.
//
// Exactly one goroutine reads the link. It treats Dispatch as instantaneous
// and never observes handler faults or lane backpressure.
package link
