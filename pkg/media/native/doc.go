// ABOUTME: Audio-only backend built on Go decoder libraries
// ABOUTME: Supports MP3 (go-mp3), FLAC (mewkiz/flac) and Ogg Opus (hraban/opus)
// Package native provides an audio-only demuxing backend for elementary
// audio files that does not need FFmpeg.
//
// The decoder libraries it uses parse and decode in one step, so the
// demuxer hands out packets that already carry PCM and the stream is
// decoded with decode.PCMDecoder:
//
//   - .mp3: s16, 2 channels
//   - .flac: s16p or s32p, one plane per channel
//   - .opus, .ogg: s16 at 48kHz
//
// Importing the package registers the "native" backend.
package native
