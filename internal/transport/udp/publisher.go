// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	applog "audiograph/internal/log"
)

// Counts is a snapshot of batch progress.
type Counts struct {
	Total    uint32
	Rendered uint32
	Skipped  uint32
	Failed   uint32
}

// Packet is one progress datagram.
type Packet struct {
	Sequence  uint32
	Timestamp int64 // Nanoseconds since epoch
	Counts
}

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Total             | uint32         | 4            | Files in the batch      |
| Rendered          | uint32         | 4            | Files with new PNGs     |
| Skipped           | uint32         | 4            | Files already done      |
| Failed            | uint32         | 4            | Files that errored      |
+-----------------------------------------------------------------------------+
*/

// PacketSize is the encoded length of a Packet.
const PacketSize = 4 + 8 + 4*4

// Encode appends the big-endian encoding of p to buf.
func (p Packet) Encode(buf *bytes.Buffer) error {
	return binary.Write(buf, binary.BigEndian, p)
}

// DecodePacket parses a datagram produced by Encode.
func DecodePacket(data []byte) (Packet, error) {
	var p Packet
	if len(data) != PacketSize {
		return p, fmt.Errorf("progress packet: got %d bytes, want %d", len(data), PacketSize)
	}
	err := binary.Read(bytes.NewReader(data), binary.BigEndian, &p)
	return p, err
}

// ProgressPublisher periodically samples batch progress, packs it into a
// Packet and sends it over UDP. A final packet is sent on Stop so the
// receiver always sees the closing totals.
type ProgressPublisher struct {
	sender   *Sender
	source   func() Counts
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sendMu       sync.Mutex // Serializes packet building.
	sequenceNum  uint32
	packetBuffer *bytes.Buffer
}

// NewProgressPublisher creates a publisher reading counts from source.
// A non-positive interval defaults to 250ms.
func NewProgressPublisher(interval time.Duration, sender *Sender, source func() Counts) (*ProgressPublisher, error) {
	if sender == nil {
		return nil, errors.New("ProgressPublisher: UDP sender cannot be nil")
	}
	if source == nil {
		return nil, errors.New("ProgressPublisher: progress source cannot be nil")
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
		applog.Warnf("ProgressPublisher: Invalid interval provided, defaulting to %s", interval)
	}
	return &ProgressPublisher{
		sender:       sender,
		source:       source,
		interval:     interval,
		packetBuffer: bytes.NewBuffer(make([]byte, 0, PacketSize)),
	}, nil
}

// Start launches the publishing goroutine. Calling Start while running is a
// no-op.
func (p *ProgressPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("ProgressPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("ProgressPublisher: Started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop ends the publishing goroutine, waits for it and sends one last
// packet. It is safe to call more than once.
func (p *ProgressPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	return p.publish()
}

// publish builds and sends one packet.
func (p *ProgressPublisher) publish() error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	p.sequenceNum++
	pkt := Packet{
		Sequence:  p.sequenceNum,
		Timestamp: time.Now().UnixNano(),
		Counts:    p.source(),
	}

	p.packetBuffer.Reset()
	if err := pkt.Encode(p.packetBuffer); err != nil {
		applog.Errorf("ProgressPublisher: Error packing packet: %v", err)
		return err
	}
	if err := p.sender.Send(p.packetBuffer.Bytes()); err != nil {
		return err
	}
	applog.Debugf("ProgressPublisher: Sent packet %d (%+v)", pkt.Sequence, pkt.Counts)
	return nil
}

// Close stops the publisher. It does not close the sender.
func (p *ProgressPublisher) Close() error {
	return p.Stop()
}

var _ interface{ Close() error } = (*ProgressPublisher)(nil)
