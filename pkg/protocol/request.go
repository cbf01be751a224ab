package protocol

import (
	"encoding/binary"
	"io"
)

// Request wire layout. All integer fields are little-endian.
//
//	0 ..3   UserID  u32
//	4       Version u8
//	5       Code    u8
//	6 ..7   NameLen u16
//	8 ..    Name    [NameLen]byte
//
// A backup request is followed by `Size u32 | Content [Size]byte`, written
// separately so large files can be streamed in chunks.
const (
	reqFixedSize = 8
	sizeFieldLen = 4

	// MaxNameLen and MaxPayload bound declared lengths; anything larger is
	// treated as malformed rather than allocated.
	MaxNameLen = 4 << 10
	MaxPayload = 1 << 30
)

// Request is one client request header. Built fresh per operation step and
// never mutated after encoding.
type Request struct {
	UserID  uint32
	Version uint8
	Code    RequestCode
	Name    string
}

// MarshalBinary encodes the header, fixed part first, then the filename.
func (r *Request) MarshalBinary() ([]byte, error) {
	if !r.Code.Valid() {
		return nil, malformed("request code %d out of range", uint8(r.Code))
	}
	if len(r.Name) > MaxNameLen {
		return nil, malformed("name length %d exceeds %d", len(r.Name), MaxNameLen)
	}
	buf := make([]byte, reqFixedSize+len(r.Name))
	binary.LittleEndian.PutUint32(buf[0:4], r.UserID)
	buf[4] = r.Version
	buf[5] = byte(r.Code)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(len(r.Name)))
	copy(buf[reqFixedSize:], r.Name)
	return buf, nil
}

// UnmarshalBinary decodes a complete encoded request header.
func (r *Request) UnmarshalBinary(buf []byte) error {
	if len(buf) < reqFixedSize {
		return malformed("request header %d bytes, want %d", len(buf), reqFixedSize)
	}
	code := RequestCode(buf[5])
	if !code.Valid() {
		return malformed("unknown request code %d", buf[5])
	}
	nameLen := int(binary.LittleEndian.Uint16(buf[6:8]))
	if reqFixedSize+nameLen > len(buf) {
		return malformed("declared name length %d exceeds buffer", nameLen)
	}
	r.UserID = binary.LittleEndian.Uint32(buf[0:4])
	r.Version = buf[4]
	r.Code = code
	r.Name = string(buf[reqFixedSize : reqFixedSize+nameLen])
	return nil
}

// ReadRequest reads one request header from rd, exactly as many bytes as the
// header declares. Used by the server side of the exchange.
func ReadRequest(rd io.Reader) (*Request, error) {
	fixed := make([]byte, reqFixedSize)
	if _, err := io.ReadFull(rd, fixed); err != nil {
		return nil, err
	}
	code := RequestCode(fixed[5])
	if !code.Valid() {
		return nil, malformed("unknown request code %d", fixed[5])
	}
	nameLen := int(binary.LittleEndian.Uint16(fixed[6:8]))
	if nameLen > MaxNameLen {
		return nil, malformed("declared name length %d exceeds %d", nameLen, MaxNameLen)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(rd, name); err != nil {
		return nil, err
	}
	return &Request{
		UserID:  binary.LittleEndian.Uint32(fixed[0:4]),
		Version: fixed[4],
		Code:    code,
		Name:    string(name),
	}, nil
}

// EncodeSize encodes the u32 content-size field that follows a backup header.
func EncodeSize(n uint32) []byte {
	buf := make([]byte, sizeFieldLen)
	binary.LittleEndian.PutUint32(buf, n)
	return buf
}

// ReadSize reads the u32 content-size field preceding file bytes.
func ReadSize(rd io.Reader) (uint32, error) {
	buf := make([]byte, sizeFieldLen)
	if _, err := io.ReadFull(rd, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}
