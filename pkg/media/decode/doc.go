// ABOUTME: Demuxer and decoder contracts shared by all backends
// ABOUTME: Provides Demuxer/Decoder interfaces, the backend registry and a PCM decoder
// Package decode defines how inputs are demultiplexed and decoded.
//
// A Backend opens an input and returns a Demuxer. The Demuxer lists the
// elementary streams, hands out packets in container order and opens one
// Decoder per stream. Decoders call back with borrowed media.Frame values.
//
// Backends register themselves by name (see the ffmpeg and native
// packages), so a program only needs a blank import to make one available.
//
// Example:
//
//	backend, err := decode.Lookup("ffmpeg")
//	demuxer, err := backend.Open("input.mkv")
//	decoder, err := demuxer.OpenDecoder(stream)
//	n, err := decoder.Decode(pkt, func(f media.Frame) error { ... })
package decode
