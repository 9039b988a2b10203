// ABOUTME: In-memory packet implementation
// ABOUTME: Byte-slice packets for backends that hand out plain buffers
package decode

import "github.com/Resonate-Protocol/rawdemux/pkg/media"

// DataPacket is a packet whose remaining bytes can be read directly
type DataPacket interface {
	Packet
	Data() []byte
	PTS() int64
}

// BufferPacket is a DataPacket backed by a byte slice
type BufferPacket struct {
	index int
	data  []byte
	pts   int64
}

// NewBufferPacket wraps data as a packet of the given stream
func NewBufferPacket(streamIndex int, data []byte, pts int64) *BufferPacket {
	return &BufferPacket{index: streamIndex, data: data, pts: pts}
}

func (p *BufferPacket) StreamIndex() int { return p.index }
func (p *BufferPacket) Size() int        { return len(p.data) }
func (p *BufferPacket) Data() []byte     { return p.data }
func (p *BufferPacket) PTS() int64       { return p.pts }

// Advance drops n bytes from the front of the packet
func (p *BufferPacket) Advance(n int) {
	if n > len(p.data) {
		n = len(p.data)
	}
	p.data = p.data[n:]
	// The timestamp belongs to the first byte of the packet
	p.pts = media.NoPTS
}

// Release drops the packet's reference to its buffer
func (p *BufferPacket) Release() {
	p.data = nil
}
