// ABOUTME: Demuxer, decoder and backend interface definitions
// ABOUTME: Common contract the raw output driver runs against
package decode

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Resonate-Protocol/rawdemux/pkg/media"
)

// Packet is one compressed unit read from the container
type Packet interface {
	// StreamIndex identifies the stream the packet belongs to
	StreamIndex() int
	// Size returns the number of bytes not yet consumed by a decoder
	Size() int
	// Advance marks n bytes as consumed
	Advance(n int)
	// Release returns the packet's buffers to the demuxer
	Release()
}

// Demuxer splits an input into per-stream packets
type Demuxer interface {
	// Streams lists every elementary stream found while probing
	Streams() []media.StreamInfo

	// ReadPacket returns the next packet in container order, or io.EOF
	ReadPacket() (Packet, error)

	// BestStream picks the stream of type t to decode. It returns
	// media.ErrStreamNotFound when the input has none and
	// media.ErrDecoderNotFound when none of them can be decoded.
	BestStream(t media.MediaType) (media.StreamInfo, error)

	// OpenDecoder opens a decoder for one of the streams
	OpenDecoder(stream media.StreamInfo) (Decoder, error)

	// Close releases the input
	Close() error
}

// FormatDumper is implemented by demuxers whose library can print a
// description of the opened input
type FormatDumper interface {
	DumpFormat()
}

// Decoder decodes the packets of one stream into frames
type Decoder interface {
	// Decode consumes bytes from pkt and calls emit for every frame that
	// becomes available. It returns the number of bytes consumed. A nil
	// pkt drains frames buffered inside the decoder.
	Decode(pkt Packet, emit func(media.Frame) error) (int, error)

	// Stream describes the decoded stream, with the output format the
	// decoder announced when it was opened
	Stream() media.StreamInfo

	// Close releases decoder resources
	Close() error
}

// Backend opens inputs for demuxing
type Backend interface {
	Open(path string) (Demuxer, error)
}

// BackendFunc adapts a function to the Backend interface
type BackendFunc func(path string) (Demuxer, error)

// Open calls f(path)
func (f BackendFunc) Open(path string) (Demuxer, error) {
	return f(path)
}

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]Backend)
)

// Register makes a backend available by name. It panics on duplicates.
func Register(name string, b Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()

	if b == nil {
		panic("decode: Register backend is nil")
	}
	if _, dup := backends[name]; dup {
		panic("decode: Register called twice for backend " + name)
	}
	backends[name] = b
}

// Lookup returns the backend registered under name
func Lookup(name string) (Backend, error) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()

	b, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend: %s (available: %v)", name, namesLocked())
	}
	return b, nil
}

// Names lists the registered backends in sorted order
func Names() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
