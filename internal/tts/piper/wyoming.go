package piper

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Wyoming protocol format (per event):
//
//	{"type": ..., "data_length": N, "payload_length": M}\n
//	<N bytes of JSON data>     (if data_length > 0)
//	<M bytes of payload>       (if payload_length > 0)
//
// Older servers put small data objects inline in the header under "data".
type wyomingEvent struct {
	Type string
	Data map[string]any
}

type wyomingHeader struct {
	Type          string         `json:"type"`
	Version       string         `json:"version,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
	DataLength    int            `json:"data_length,omitempty"`
	PayloadLength int            `json:"payload_length,omitempty"`
}

const (
	wyomingVersion = "1.5.2"

	maxHeaderBytes  = 64 << 10
	maxDataBytes    = 1 << 20
	maxPayloadBytes = 16 << 20
)

var (
	errBadLength  = errors.New("negative wyoming length")
	errTooLarge   = errors.New("wyoming event too large")
	errLongHeader = errors.New("wyoming header line too long")
)

// writeEvent sends a Wyoming event over the connection.
func writeEvent(w io.Writer, evt wyomingEvent, payload []byte) error {
	var data []byte
	if len(evt.Data) > 0 {
		var err error
		if data, err = json.Marshal(evt.Data); err != nil {
			return fmt.Errorf("marshalling event data: %w", err)
		}
	}

	header, err := json.Marshal(wyomingHeader{
		Type:          evt.Type,
		Version:       wyomingVersion,
		DataLength:    len(data),
		PayloadLength: len(payload),
	})
	if err != nil {
		return fmt.Errorf("marshalling event header: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(header)
	buf.WriteByte('\n')
	buf.Write(data)
	buf.Write(payload)

	_, err = w.Write(buf.Bytes())
	return err
}

// readEvent reads one Wyoming event and its payload.
func readEvent(r *bufio.Reader) (*wyomingEvent, []byte, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	var hdr wyomingHeader
	if err := json.Unmarshal(line, &hdr); err != nil {
		return nil, nil, fmt.Errorf("invalid wyoming header: %w", err)
	}
	if err := checkLength(hdr.DataLength, maxDataBytes); err != nil {
		return nil, nil, fmt.Errorf("data_length %d: %w", hdr.DataLength, err)
	}
	if err := checkLength(hdr.PayloadLength, maxPayloadBytes); err != nil {
		return nil, nil, fmt.Errorf("payload_length %d: %w", hdr.PayloadLength, err)
	}

	evt := &wyomingEvent{Type: hdr.Type, Data: hdr.Data}
	if hdr.DataLength > 0 {
		buf := make([]byte, hdr.DataLength)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, nil, fmt.Errorf("reading data: %w", err)
		}
		var extra map[string]any
		if err := json.Unmarshal(buf, &extra); err != nil {
			return nil, nil, fmt.Errorf("unmarshalling event data: %w", err)
		}
		if evt.Data == nil {
			evt.Data = extra
		} else {
			for k, v := range extra {
				evt.Data[k] = v
			}
		}
	}

	var payload []byte
	if hdr.PayloadLength > 0 {
		payload = make([]byte, hdr.PayloadLength)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("reading payload: %w", err)
		}
	}
	return evt, payload, nil
}

func readLine(r *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return nil, err
		}
		line = append(line, chunk...)
		if len(line) > maxHeaderBytes {
			return nil, errLongHeader
		}
		if !isPrefix {
			return line, nil
		}
	}
}

func checkLength(n, limit int) error {
	switch {
	case n < 0:
		return errBadLength
	case n > limit:
		return errTooLarge
	}
	return nil
}

// pcmToWAV wraps raw little-endian PCM data in a 44-byte WAV header.
func pcmToWAV(pcm []byte, sampleRate, channels, bytesPerSample int) []byte {
	buf := &bytes.Buffer{}
	buf.Grow(44 + len(pcm))

	le := func(v any) { _ = binary.Write(buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	le(uint32(36 + len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	le(uint32(16))
	le(uint16(1)) // PCM
	le(uint16(channels))
	le(uint32(sampleRate))
	le(uint32(sampleRate * channels * bytesPerSample))
	le(uint16(channels * bytesPerSample))
	le(uint16(bytesPerSample * 8))

	buf.WriteString("data")
	le(uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
