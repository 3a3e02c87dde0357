// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"termvis/internal/log"
	"termvis/internal/transport"
)

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = 33 * time.Millisecond

var ErrShortPacket = errors.New("UDP packet truncated")

// Publisher rate-limits frames onto the wire. Send only records the latest
// frame; a ticker goroutine packs and sends it, at most once per interval and
// never the same frame twice.
type Publisher struct {
	sender   *Sender
	interval time.Duration

	ticker   *time.Ticker   // Triggers packet sending.
	doneChan chan struct{}  // Signals the publisher goroutine to stop.
	stopOnce sync.Once      // Stop logic runs once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine in Stop.
	mu       sync.Mutex     // Protects ticker and doneChan.

	latestMu sync.Mutex
	latest   Packet // Copy of the newest frame, reused between frames.
	pending  bool   // latest has not been sent yet.

	sequenceNum  uint32
	out          Packet        // Snapshot taken under latestMu for packing.
	packetBuffer *bytes.Buffer // Reused between packets.
}

// NewPublisher returns a stopped publisher. Call Start to begin sending.
func NewPublisher(interval time.Duration, sender *Sender) (*Publisher, error) {
	if sender == nil {
		return nil, errors.New("UDPPublisher: UDP sender cannot be nil")
	}
	if interval <= 0 {
		interval = DefaultInterval
		log.Warnf("UDPPublisher: invalid interval, defaulting to %s", interval)
	}
	log.Infof("UDPPublisher: initializing (interval %s)", interval)

	return &Publisher{
		sender:       sender,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Send records data, which must be a transport.Frame, as the next frame to
// publish. It never blocks on the network.
func (p *Publisher) Send(data any) error {
	f, ok := transport.AsFrame(data)
	if !ok {
		return fmt.Errorf("UDPPublisher: unsupported payload %T", data)
	}

	p.latestMu.Lock()
	defer p.latestMu.Unlock()
	p.latest.Timestamp = f.Timestamp
	p.latest.Energy = float32(f.Energy)
	p.latest.Beat = f.Beat
	p.latest.Bands = fill32(p.latest.Bands, len(f.Bands), func(i int) float64 { return f.Bands[i].Level })
	p.latest.Spectrum = fill32(p.latest.Spectrum, len(f.Spectrum), func(i int) float64 { return f.Spectrum[i] })
	p.pending = true
	return nil
}

func fill32(dst []float32, n int, at func(int) float64) []float32 {
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = float32(at(i))
	}
	return dst
}

// Start launches the publisher goroutine. Calling it while running is a
// no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		log.Warnf("UDPPublisher: Start called but already running")
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

// Stop terminates the publisher goroutine and waits for it. Safe to call
// more than once.
func (p *Publisher) Stop() error {
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
	log.Debugf("UDPPublisher: stopped after %d packets", p.sequenceNum)
	return nil
}

// publish packs and sends the pending frame, if any.
func (p *Publisher) publish() {
	p.latestMu.Lock()
	if !p.pending {
		p.latestMu.Unlock()
		return
	}
	p.out.Timestamp = p.latest.Timestamp
	p.out.Energy = p.latest.Energy
	p.out.Beat = p.latest.Beat
	p.out.Bands = append(p.out.Bands[:0], p.latest.Bands...)
	p.out.Spectrum = append(p.out.Spectrum[:0], p.latest.Spectrum...)
	p.pending = false
	p.latestMu.Unlock()

	p.out.Sequence = p.sequenceNum
	if err := p.out.encode(p.packetBuffer); err != nil {
		log.Errorf("UDPPublisher: error packing frame: %v", err)
		return
	}
	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		log.Debugf("UDPPublisher: sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	}
	p.sequenceNum++
}

// Close stops publishing and closes the sender.
func (p *Publisher) Close() error {
	return errors.Join(p.Stop(), p.sender.Close())
}

var _ transport.Transport = (*Publisher)(nil)

/*
Packet layout, big endian:

	| Field      | Type      | Size  |
	|------------|-----------|-------|
	| Sequence   | uint32    | 4     |
	| Timestamp  | int64     | 8     | Unix nanoseconds
	| Energy     | float32   | 4     |
	| Flags      | uint8     | 1     | bit 0: beat
	| Band count | uint8     | 1     |
	| Bands      | []float32 | B * 4 |
	| Bin count  | uint16    | 2     |
	| Spectrum   | []float32 | N * 4 |
*/

const (
	flagBeat   = 1 << 0
	headerSize = 4 + 8 + 4 + 1 + 1
)

// Packet is one decoded frame.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Energy    float32
	Beat      bool
	Bands     []float32
	Spectrum  []float32
}

func (pk *Packet) encode(buf *bytes.Buffer) error {
	if len(pk.Bands) > math.MaxUint8 || len(pk.Spectrum) > math.MaxUint16 {
		return fmt.Errorf("frame too large: %d bands, %d bins", len(pk.Bands), len(pk.Spectrum))
	}

	var flags uint8
	if pk.Beat {
		flags |= flagBeat
	}

	buf.Reset()
	buf.Grow(headerSize + 4*len(pk.Bands) + 2 + 4*len(pk.Spectrum))
	var scratch [8]byte
	be := binary.BigEndian

	buf.Write(be.AppendUint32(scratch[:0], pk.Sequence))
	buf.Write(be.AppendUint64(scratch[:0], uint64(pk.Timestamp)))
	buf.Write(be.AppendUint32(scratch[:0], math.Float32bits(pk.Energy)))
	buf.WriteByte(flags)
	buf.WriteByte(uint8(len(pk.Bands)))
	for _, v := range pk.Bands {
		buf.Write(be.AppendUint32(scratch[:0], math.Float32bits(v)))
	}
	buf.Write(be.AppendUint16(scratch[:0], uint16(len(pk.Spectrum))))
	for _, v := range pk.Spectrum {
		buf.Write(be.AppendUint32(scratch[:0], math.Float32bits(v)))
	}
	return nil
}

// Decode parses a packet produced by a Publisher.
func Decode(b []byte) (Packet, error) {
	var pk Packet
	if len(b) < headerSize {
		return pk, ErrShortPacket
	}
	be := binary.BigEndian

	pk.Sequence = be.Uint32(b[0:])
	pk.Timestamp = int64(be.Uint64(b[4:]))
	pk.Energy = math.Float32frombits(be.Uint32(b[12:]))
	pk.Beat = b[16]&flagBeat != 0
	bands := int(b[17])
	b = b[headerSize:]

	if len(b) < 4*bands+2 {
		return pk, ErrShortPacket
	}
	pk.Bands, b = readFloats(b, bands)

	bins := int(be.Uint16(b))
	b = b[2:]
	if len(b) < 4*bins {
		return pk, ErrShortPacket
	}
	pk.Spectrum, _ = readFloats(b, bins)

	return pk, nil
}

func readFloats(b []byte, n int) ([]float32, []byte) {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(b[4*i:]))
	}
	return out, b[4*n:]
}
