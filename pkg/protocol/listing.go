package protocol

import "encoding/binary"

// A file-list payload is a packed sequence of entries, order preserved:
//
//	NameLen u16 | Name [NameLen]byte | Size u32
//
// The entries fill the declared payload length exactly; trailing bytes or a
// truncated entry make the payload malformed.

// FileInfo describes one stored file as reported by the server.
type FileInfo struct {
	Name string
	Size int64
}

// AppendListEntry appends one listing entry to buf in wire form.
func AppendListEntry(buf []byte, fi FileInfo) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], uint16(len(fi.Name)))
	buf = append(buf, tmp[:]...)
	buf = append(buf, fi.Name...)
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], uint32(fi.Size))
	return append(buf, sz[:]...)
}

// ParseListing decodes a complete file-list payload.
func ParseListing(payload []byte) ([]FileInfo, error) {
	var out []FileInfo
	for off := 0; off < len(payload); {
		if off+2 > len(payload) {
			return nil, malformed("truncated listing entry at offset %d", off)
		}
		nameLen := int(binary.LittleEndian.Uint16(payload[off : off+2]))
		off += 2
		if off+nameLen+4 > len(payload) {
			return nil, malformed("listing entry overruns payload at offset %d", off)
		}
		name := string(payload[off : off+nameLen])
		off += nameLen
		size := binary.LittleEndian.Uint32(payload[off : off+4])
		off += 4
		out = append(out, FileInfo{Name: name, Size: int64(size)})
	}
	return out, nil
}
