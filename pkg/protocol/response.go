package protocol

import (
	"encoding/binary"
	"io"
)

// Response wire layout. All integer fields are little-endian.
//
//	0       Version u8
//	1 ..2   Status  u16
//	3 ..4   NameLen u16
//	5 ..    Name    [NameLen]byte
//
// Statuses with HasPayload() append `Size u32 | Payload [Size]byte`.
const respFixedSize = 5

// Response is one decoded server response. Read once, never mutated.
type Response struct {
	Version uint8
	Status  StatusCode
	Name    string
	Payload []byte
}

// ReadResponse reads exactly one response from rd. The declared lengths fully
// determine how many bytes are consumed; nothing past the message is read.
func ReadResponse(rd io.Reader) (*Response, error) {
	fixed := make([]byte, respFixedSize)
	if _, err := io.ReadFull(rd, fixed); err != nil {
		return nil, err
	}
	status := StatusCode(binary.LittleEndian.Uint16(fixed[1:3]))
	if !status.Valid() {
		return nil, malformed("unknown status code %d", uint16(status))
	}
	nameLen := int(binary.LittleEndian.Uint16(fixed[3:5]))
	if nameLen > MaxNameLen {
		return nil, malformed("declared name length %d exceeds %d", nameLen, MaxNameLen)
	}
	resp := &Response{Version: fixed[0], Status: status}
	if nameLen > 0 {
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(rd, name); err != nil {
			return nil, err
		}
		resp.Name = string(name)
	}
	if status.HasPayload() {
		size, err := ReadSize(rd)
		if err != nil {
			return nil, err
		}
		if size > MaxPayload {
			return nil, malformed("declared payload size %d exceeds %d", size, MaxPayload)
		}
		if size > 0 {
			resp.Payload = make([]byte, size)
			if _, err := io.ReadFull(rd, resp.Payload); err != nil {
				return nil, err
			}
		}
	}
	return resp, nil
}

// WriteTo writes the response in wire form. Used by the in-process server in
// tests and by server-side tooling.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, respFixedSize, respFixedSize+len(r.Name)+sizeFieldLen+len(r.Payload))
	buf[0] = r.Version
	binary.LittleEndian.PutUint16(buf[1:3], uint16(r.Status))
	binary.LittleEndian.PutUint16(buf[3:5], uint16(len(r.Name)))
	buf = append(buf, r.Name...)
	if r.Status.HasPayload() {
		buf = append(buf, EncodeSize(uint32(len(r.Payload)))...)
		buf = append(buf, r.Payload...)
	}
	n, err := w.Write(buf)
	return int64(n), err
}
