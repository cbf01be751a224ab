package protocol

import "fmt"

// Version is the protocol revision this client speaks. Servers echo their own
// version in every response header; a disagreement aborts the operation.
const Version uint8 = 1

// RequestCode identifies the operation a request asks the server to perform.
// The set is closed; new codes require a protocol version bump.
type RequestCode uint8

const (
	ReqBackup  RequestCode = 100 // upload one file
	ReqRestore RequestCode = 200 // download one file
	ReqDelete  RequestCode = 201 // delete one stored file
	ReqList    RequestCode = 202 // list files owned by the user
)

func (c RequestCode) Valid() bool {
	switch c {
	case ReqBackup, ReqRestore, ReqDelete, ReqList:
		return true
	}
	return false
}

func (c RequestCode) String() string {
	switch c {
	case ReqBackup:
		return "backup"
	case ReqRestore:
		return "restore"
	case ReqDelete:
		return "delete"
	case ReqList:
		return "list"
	default:
		return fmt.Sprintf("request(%d)", uint8(c))
	}
}

// StatusCode is the server's verdict on one request. The set is closed; a
// status outside it is a malformed message, never a silent default.
type StatusCode uint16

const (
	StatusFound     StatusCode = 210 // success, file payload follows
	StatusFileList  StatusCode = 211 // success, listing payload follows
	StatusNoPayload StatusCode = 212 // success, nothing follows
	StatusNotFound  StatusCode = 1001
	StatusNoFiles   StatusCode = 1002
	StatusServerErr StatusCode = 1003
)

func (s StatusCode) Valid() bool {
	switch s {
	case StatusFound, StatusFileList, StatusNoPayload,
		StatusNotFound, StatusNoFiles, StatusServerErr:
		return true
	}
	return false
}

// OK reports whether the status is a success for the request it answers.
func (s StatusCode) OK() bool {
	return s == StatusFound || s == StatusFileList || s == StatusNoPayload
}

// HasPayload reports whether a size field and payload follow the header.
func (s StatusCode) HasPayload() bool {
	return s == StatusFound || s == StatusFileList
}

func (s StatusCode) String() string {
	switch s {
	case StatusFound:
		return "success:found"
	case StatusFileList:
		return "success:file-list"
	case StatusNoPayload:
		return "success:no-payload"
	case StatusNotFound:
		return "file-not-found"
	case StatusNoFiles:
		return "no-files"
	case StatusServerErr:
		return "server-error"
	default:
		return fmt.Sprintf("status(%d)", uint16(s))
	}
}
