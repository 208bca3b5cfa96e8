// Package protocol defines the byte layout of the excerpt service wire
// protocol: newline-terminated command lines from the client, and
// status-prefixed length-delimited frames from the server.
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// Response status bytes. ASCII digits, matching the original protocol.
const (
	StatusOK  byte = '1'
	StatusErr byte = '0'
)

const (
	headerLen = 4 // big-endian uint32 payload length

	// MaxFrameSize caps a single frame payload. Excerpts larger than this
	// are refused rather than letting a corrupt header drive allocation.
	MaxFrameSize = 256 * 1024 * 1024
)

// CommandKind tags a parsed client command.
type CommandKind int

const (
	CmdList CommandKind = iota
	CmdGet
	CmdUnknown
	CmdMalformed
)

// Command is one parsed client line. For CmdGet the time fields carry the
// raw tokens; numeric validation happens later so that rejection ordering
// is preserved.
type Command struct {
	Kind     CommandKind
	Verb     string // uppercased first token, empty for a blank line
	Filename string
	StartRaw string
	EndRaw   string
	Raw      string // full line as received, trimmed
	Reason   string // human-readable reason for CmdMalformed
}

// ParseCommand parses a single command line. It never fails: anything that
// does not match the grammar comes back as CmdUnknown or CmdMalformed.
func ParseCommand(line string) Command {
	raw := strings.TrimSpace(line)
	parts := strings.Fields(raw)

	if len(parts) == 0 {
		return Command{Kind: CmdMalformed, Raw: raw, Reason: "empty command"}
	}

	verb := strings.ToUpper(parts[0])

	switch verb {
	case "LIST":
		if len(parts) != 1 {
			return Command{Kind: CmdMalformed, Verb: verb, Raw: raw, Reason: "LIST takes no arguments"}
		}
		return Command{Kind: CmdList, Verb: verb, Raw: raw}

	case "GET":
		if len(parts) != 4 {
			return Command{
				Kind:   CmdMalformed,
				Verb:   verb,
				Raw:    raw,
				Reason: "invalid GET command, usage: GET <filename> <start> <end>",
			}
		}
		return Command{
			Kind:     CmdGet,
			Verb:     verb,
			Filename: parts[1],
			StartRaw: parts[2],
			EndRaw:   parts[3],
			Raw:      raw,
		}

	default:
		return Command{Kind: CmdUnknown, Verb: verb, Raw: raw, Reason: fmt.Sprintf("unknown command: %s", verb)}
	}
}

// WriteCommand sends one command line to the server.
func WriteCommand(w io.Writer, line string) error {
	if _, err := io.WriteString(w, line+"\n"); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// WriteFramed writes a status byte, a 4-byte big-endian payload length and
// the payload itself.
func WriteFramed(w io.Writer, status byte, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("frame payload %d bytes exceeds maximum %d", len(payload), MaxFrameSize)
	}

	header := make([]byte, 1+headerLen)
	header[0] = status
	binary.BigEndian.PutUint32(header[1:], uint32(len(payload)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// WritePlain writes raw unframed bytes. Only the legacy protocol revision
// uses this, for LIST replies and generic error text.
func WritePlain(w io.Writer, payload []byte) error {
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write plain response: %w", err)
	}
	return nil
}

// ReadFrameHeader reads the status byte and declared payload length.
// A missing status byte surfaces as io.EOF (peer closed); a short length
// header is a protocol error.
func ReadFrameHeader(r io.Reader) (status byte, length uint32, err error) {
	var statusBuf [1]byte
	if _, err := io.ReadFull(r, statusBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, 0, err
	}

	var lenBuf [headerLen]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, 0, fmt.Errorf("short frame header: %w", err)
	}

	length = binary.BigEndian.Uint32(lenBuf[:])
	if length > MaxFrameSize {
		return 0, 0, fmt.Errorf("frame length %d exceeds maximum %d", length, MaxFrameSize)
	}
	return statusBuf[0], length, nil
}

// ReadFramed reads one complete frame. A short payload read returns the
// bytes received so far along with the error, so callers can treat it as a
// recoverable transfer failure rather than a protocol violation.
func ReadFramed(r io.Reader) (status byte, payload []byte, err error) {
	status, length, err := ReadFrameHeader(r)
	if err != nil {
		return 0, nil, err
	}

	payload = make([]byte, length)
	n, err := io.ReadFull(r, payload)
	if err != nil {
		return status, payload[:n], fmt.Errorf("short frame payload (%d/%d bytes): %w", n, length, err)
	}
	return status, payload, nil
}
