package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/nappernick/mcp-wrapper/pkg/jsonrpc"
)

// Server speaks newline-delimited JSON-RPC over a byte stream, the
// subprocess deployment mode. Requests are handled sequentially, which keeps
// one conversation in flight per process.
type Server struct {
	dispatcher *jsonrpc.Dispatcher

	in  io.Reader
	out io.Writer

	logger *slog.Logger
}

type Option func(*Server)

func WithStreams(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(dispatcher *jsonrpc.Dispatcher, options ...Option) *Server {
	s := &Server{
		dispatcher: dispatcher,

		logger: slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	return s
}

func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())

		if len(line) == 0 {
			continue
		}

		var req jsonrpc.Request

		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.WarnContext(ctx, "unparseable request", "error", err)

			if err := encoder.Encode(jsonrpc.NewErrorResponse(nil, jsonrpc.CodeParseError, "parse error")); err != nil {
				return err
			}

			continue
		}

		resp := s.dispatcher.Dispatch(ctx, req)

		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}

	return scanner.Err()
}
