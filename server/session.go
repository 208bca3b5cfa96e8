package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"soundbite/protocol"
	"soundbite/types"

	"github.com/google/uuid"
)

// maxCommandLen caps one command line. A peer streaming bytes without a
// newline must not grow server memory without bound.
const maxCommandLen = 4096

// session drives one client connection: read a line, dispatch, respond,
// repeat until the peer disconnects or the transport fails.
type session struct {
	id   string
	conn net.Conn
	srv  *Server
}

func newSession(conn net.Conn, srv *Server) *session {
	return &session{
		id:   uuid.New().String(),
		conn: conn,
		srv:  srv,
	}
}

func (s *session) run(ctx context.Context) {
	remote := s.conn.RemoteAddr()
	log.Printf("[%s] client connected: %s", s.id, remote)
	s.notify("connect", "", remote.String(), 0)

	defer func() {
		s.conn.Close()
		log.Printf("[%s] connection closed: %s", s.id, remote)
		s.notify("disconnect", "", remote.String(), 0)
	}()

	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, 1024), maxCommandLen)

	for scanner.Scan() {
		cmd := protocol.ParseCommand(scanner.Text())
		s.srv.stats.Commands.Add(1)
		log.Printf("[%s] command: %q", s.id, cmd.Raw)

		if err := s.dispatch(ctx, cmd); err != nil {
			// Only transport failures reach here; everything else became a
			// response to the client.
			log.Printf("[%s] transport error: %v", s.id, err)
			return
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			// The line cannot be resynchronized, so reply and hang up.
			s.srv.stats.Errors.Add(1)
			reason := fmt.Sprintf("command line exceeds %d bytes", maxCommandLen)
			s.notify("error", "", reason, 0)
			s.writeError(protocol.Command{}, types.NewRequestError(types.ErrMalformedCommand, reason))
			return
		}
		if !errors.Is(err, net.ErrClosed) {
			log.Printf("[%s] read error: %v", s.id, err)
		}
	}
}

// dispatch handles one command and writes exactly one response. Validation
// and extraction failures are converted to error responses; a panic inside
// command handling is recovered at the same boundary.
func (s *session) dispatch(ctx context.Context, cmd protocol.Command) (wireErr error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] panic handling %q: %v", s.id, cmd.Raw, r)
			wireErr = s.writeError(cmd, types.NewRequestError(types.ErrAudioRead,
				fmt.Sprintf("internal error handling command: %v", r)))
		}
	}()

	switch cmd.Kind {
	case protocol.CmdList:
		return s.handleList(cmd)

	case protocol.CmdGet:
		return s.handleGet(ctx, cmd)

	case protocol.CmdUnknown:
		s.srv.stats.Errors.Add(1)
		s.notify("error", cmd.Raw, cmd.Reason, 0)
		return s.writeError(cmd, types.NewRequestError(types.ErrUnknownCommand, cmd.Reason))

	default: // CmdMalformed
		s.srv.stats.Errors.Add(1)
		s.notify("error", cmd.Raw, cmd.Reason, 0)
		return s.writeError(cmd, types.NewRequestError(types.ErrMalformedCommand, cmd.Reason))
	}
}

func (s *session) handleList(cmd protocol.Command) error {
	payload, err := json.Marshal(s.srv.catalog.Entries())
	if err != nil {
		s.srv.stats.Errors.Add(1)
		return s.writeError(cmd, types.NewRequestError(types.ErrAudioRead,
			fmt.Sprintf("cannot serialize catalog: %v", err)))
	}

	s.notify("command", cmd.Raw, fmt.Sprintf("%d entries", s.srv.catalog.Len()), int64(len(payload)))

	if s.srv.opts.LegacyPlain {
		return protocol.WritePlain(s.conn, payload)
	}
	return protocol.WriteFramed(s.conn, protocol.StatusOK, payload)
}

func (s *session) handleGet(ctx context.Context, cmd protocol.Command) error {
	vr, err := s.srv.validator.Validate(ctx, cmd)
	if err != nil {
		s.srv.stats.Errors.Add(1)
		s.notify("error", cmd.Raw, err.Error(), 0)
		return s.writeError(cmd, err)
	}

	data, err := s.srv.engine.Extract(ctx, vr.Path, vr.StartMS, vr.EndMS, vr.Format)
	if err != nil {
		s.srv.stats.Errors.Add(1)
		s.notify("error", cmd.Raw, err.Error(), 0)
		return s.writeError(cmd, types.NewRequestError(types.ErrAudioRead,
			fmt.Sprintf("cannot extract excerpt: %v", err)))
	}

	s.srv.stats.Excerpts.Add(1)
	s.notify("command", cmd.Raw, fmt.Sprintf("excerpt %s [%d, %d) ms", vr.Filename, vr.StartMS, vr.EndMS), int64(len(data)))
	log.Printf("[%s] sent excerpt %s (%d bytes)", s.id, vr.Filename, len(data))

	return protocol.WriteFramed(s.conn, protocol.StatusOK, data)
}

// writeError sends an error response. GET failures are always framed; in
// legacy mode other failures go out as bare text, the way the original
// protocol did.
func (s *session) writeError(cmd protocol.Command, err error) error {
	payload := []byte(err.Error())

	if s.srv.opts.LegacyPlain && cmd.Verb != "GET" {
		return protocol.WritePlain(s.conn, payload)
	}
	return protocol.WriteFramed(s.conn, protocol.StatusErr, payload)
}

func (s *session) notify(msgType, command, detail string, bytes int64) {
	if s.srv.hub != nil {
		s.srv.hub.Broadcast(s.id, msgType, command, detail, bytes)
	}
}
