// Package aap holds the protocol vocabulary shared across the link layer:
// channel identifiers, traffic categories, the frame header codec, and the
// in-memory Message type handed from the link reader to the dispatcher.
//
// The wire framing is minimal: every frame starts with a 4-byte header
// {channel, flags, length} followed by length payload bytes. Everything
// above that (session crypto, media codecs) lives outside this repository.
package aap
