// Package stenura implements the Stenura wire protocol client: a
// request/response framed protocol over a serial line with a table-driven
// CRC-16, monotone sequence numbers, fixed-interval retries, and a polling loop
// that demultiplexes device packets into chords. The framing style (fixed
// header, length-prefixed data section, binary.LittleEndian field layout)
// follows the teacher's internal/ipc wire format.
package stenura

import (
	"encoding/binary"
	"fmt"
)

// soh is the start-of-header marker every request and response begins with.
const soh = 0x01

// Action identifies a Stenura command.
type Action uint16

const (
	ActionClose      Action = 0x02
	ActionDelete     Action = 0x03
	ActionDiskStatus Action = 0x07
	ActionOpen       Action = 0x0A
	ActionReadC      Action = 0x0B
	ActionReset      Action = 0x14
	ActionTerm       Action = 0x15
	ActionGetDOS     Action = 0x18
	ActionDiag       Action = 0x19
)

// requestHeaderSize is the fixed size of a request packet's header: SOH,
// seq, len, action, five u16 parameters, crc.
const requestHeaderSize = 18

// responseHeaderSize is the fixed size of a response packet's header: SOH,
// seq, len, action, err, two u16 parameters, crc.
const responseHeaderSize = 14

// Request is one outbound Stenura command.
type Request struct {
	Seq    byte
	Action Action
	P1, P2, P3, P4, P5 uint16
	Data   []byte
}

// Response is one inbound Stenura reply.
type Response struct {
	Seq    byte
	Action Action
	Err    uint16
	P1, P2 uint16
	Data   []byte
}

// Encode serializes r into its on-wire byte form, including the trailing
// data-section CRC when r.Data is non-empty.
func (r Request) Encode() []byte {
	dataLen := 0
	if len(r.Data) > 0 {
		dataLen = len(r.Data) + 2
	}

	buf := make([]byte, requestHeaderSize+len(r.Data)+dataCRCLen(r.Data))
	buf[0] = soh
	buf[1] = r.Seq
	binary.LittleEndian.PutUint16(buf[2:4], uint16(dataLen))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(r.Action))
	binary.LittleEndian.PutUint16(buf[6:8], r.P1)
	binary.LittleEndian.PutUint16(buf[8:10], r.P2)
	binary.LittleEndian.PutUint16(buf[10:12], r.P3)
	binary.LittleEndian.PutUint16(buf[12:14], r.P4)
	binary.LittleEndian.PutUint16(buf[14:16], r.P5)

	headerCRC := crc16(buf[1:16])
	binary.LittleEndian.PutUint16(buf[16:18], headerCRC)

	if len(r.Data) > 0 {
		copy(buf[18:], r.Data)
		dcrc := crc16(r.Data)
		binary.LittleEndian.PutUint16(buf[18+len(r.Data):], dcrc)
	}
	return buf
}

// dataCRCSize is the width of the trailing CRC that follows a data section.
const dataCRCSize = 2

func dataCRCLen(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	return dataCRCSize
}

// DecodeResponse parses a response packet's fixed header from buf, and, if
// the header declares a data section, the data and its CRC as well. buf
// must contain at least one full response (the caller reads exactly
// responseHeaderSize bytes first, asks ResponseDataLen how many more to
// read, then reads the remainder and calls DecodeResponse with the full
// buffer).
func DecodeResponse(buf []byte) (Response, error) {
	if len(buf) < responseHeaderSize {
		return Response{}, fmt.Errorf("stenura: short response header: %d bytes", len(buf))
	}
	if buf[0] != soh {
		return Response{}, fmt.Errorf("stenura: missing SOH marker")
	}

	declaredLen := binary.LittleEndian.Uint16(buf[2:4])
	wantCRC := crc16(buf[1:12])
	gotCRC := binary.LittleEndian.Uint16(buf[12:14])
	if wantCRC != gotCRC {
		return Response{}, ErrBadCRC
	}

	resp := Response{
		Seq:    buf[1],
		Action: Action(binary.LittleEndian.Uint16(buf[4:6])),
		Err:    binary.LittleEndian.Uint16(buf[6:8]),
		P1:     binary.LittleEndian.Uint16(buf[8:10]),
		P2:     binary.LittleEndian.Uint16(buf[10:12]),
	}

	if declaredLen == 0 {
		return resp, nil
	}

	dataLen := int(declaredLen) - 2
	if dataLen < 0 || len(buf) < responseHeaderSize+dataLen+2 {
		return Response{}, ErrBadLength
	}

	data := buf[responseHeaderSize : responseHeaderSize+dataLen]
	wantDataCRC := crc16(data)
	gotDataCRC := binary.LittleEndian.Uint16(buf[responseHeaderSize+dataLen:])
	if wantDataCRC != gotDataCRC {
		return Response{}, ErrBadCRC
	}

	resp.Data = data
	return resp, nil
}

// ResponseDataLen reports how many additional bytes (beyond
// responseHeaderSize) a response declares, given its fixed header.
func ResponseDataLen(header []byte) (int, error) {
	if len(header) < responseHeaderSize {
		return 0, fmt.Errorf("stenura: short response header: %d bytes", len(header))
	}
	declared := int(binary.LittleEndian.Uint16(header[2:4]))
	if declared == 0 {
		return 0, nil
	}
	return declared, nil
}
