package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"mdview/pkg/errors"
	"mdview/pkg/logger"

	"github.com/rs/zerolog"
)

type handler func(ctx context.Context, params json.RawMessage) (any, error)

// Server answers requests read from r on w, one at a time and in order.
type Server struct {
	api      API
	r        io.Reader
	w        io.Writer
	handlers map[string]handler
	log      zerolog.Logger

	mu  sync.Mutex
	enc *json.Encoder
}

func NewServer(api API, r io.Reader, w io.Writer) *Server {
	s := &Server{
		api: api,
		r:   r,
		w:   w,
		enc: json.NewEncoder(w),
		log: logger.With("ipc-server"),
	}
	s.handlers = s.routes()
	return s
}

// Serve runs until r reaches EOF or ctx ends. EOF is a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 64*1024), maxFrameSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn().Err(err).Msg("dropping malformed frame")
			s.reply(Response{Error: toBody(errors.NewWithError(errors.ExitCodeIPC, "malformed request", err))})
			continue
		}
		s.reply(s.handle(ctx, req))
	}
	if err := scanner.Err(); err != nil {
		return errors.NewWithError(errors.ExitCodeIPC, "read request", err)
	}
	s.log.Debug().Msg("client closed the connection")
	return nil
}

func (s *Server) handle(ctx context.Context, req Request) Response {
	resp := Response{ID: req.ID}

	h, ok := s.handlers[req.Method]
	if !ok {
		resp.Error = toBody(errors.New(errors.ExitCodeIPC, fmt.Sprintf("unknown method %q", req.Method)))
		return resp
	}

	result, err := h(ctx, req.Params)
	if err != nil {
		s.log.Debug().Err(err).Str("method", req.Method).Msg("request failed")
		resp.Error = toBody(err)
		return resp
	}

	data, err := json.Marshal(result)
	if err != nil {
		resp.Error = toBody(errors.NewWithError(errors.ExitCodeIPC, "encode result", err))
		return resp
	}
	resp.Result = data
	return resp
}

func (s *Server) reply(resp Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(resp); err != nil {
		s.log.Warn().Err(err).Str("id", resp.ID).Msg("failed to write response")
	}
}

// decode unmarshals params into a fresh T.
func decode[T any](params json.RawMessage) (T, error) {
	var v T
	if len(params) == 0 {
		return v, errors.ValidationError("missing params")
	}
	if err := json.Unmarshal(params, &v); err != nil {
		return v, errors.NewWithError(errors.ExitCodeValidation, "invalid params", err)
	}
	return v, nil
}

func (s *Server) routes() map[string]handler {
	api := s.api
	return map[string]handler{
		MethodSetSandboxRoot: func(ctx context.Context, raw json.RawMessage) (any, error) {
			p, err := decode[pathParams](raw)
			if err != nil {
				return nil, err
			}
			return nil, api.SetSandboxRoot(ctx, p.Path)
		},
		MethodGetSandboxRoot: func(ctx context.Context, _ json.RawMessage) (any, error) {
			root, ok, err := api.GetSandboxRoot(ctx)
			if err != nil || !ok {
				return nil, err
			}
			return root, nil
		},
		MethodValidateLaunchArgument: func(ctx context.Context, raw json.RawMessage) (any, error) {
			p, err := decode[rawParams](raw)
			if err != nil {
				return nil, err
			}
			return api.ValidateLaunchArgument(ctx, p.Raw)
		},
		MethodSyncClipboardMirror: func(ctx context.Context, raw json.RawMessage) (any, error) {
			p, err := decode[mirrorParams](raw)
			if err != nil {
				return nil, err
			}
			return nil, api.SyncClipboardMirror(ctx, p.Files, p.Mode)
		},
		MethodGetClipboardMirror: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return api.GetClipboardMirror(ctx)
		},
		MethodReadOSClipboardFiles: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return api.ReadOSClipboardFiles(ctx)
		},
		MethodWriteOSClipboardFiles: func(ctx context.Context, raw json.RawMessage) (any, error) {
			p, err := decode[clipboardWriteParams](raw)
			if err != nil {
				return nil, err
			}
			return api.WriteOSClipboardFiles(ctx, p.Paths, p.IsCut)
		},
		MethodHasOSClipboardFiles: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return api.HasOSClipboardFiles(ctx)
		},
		MethodClearOSClipboard: func(ctx context.Context, _ json.RawMessage) (any, error) {
			return nil, api.ClearOSClipboard(ctx)
		},
		MethodCopyFile:         s.transfer(api.CopyFile),
		MethodCopyDirRecursive: s.transfer(api.CopyDirRecursive),
		MethodMoveFile:         s.transfer(api.MoveFile),
		MethodPathExists:       s.query(api.PathExists),
		MethodIsDirectory:      s.query(api.IsDirectory),
	}
}

func (s *Server) transfer(fn func(ctx context.Context, src, dst string) error) handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		p, err := decode[transferParams](raw)
		if err != nil {
			return nil, err
		}
		return nil, fn(ctx, p.Src, p.Dst)
	}
}

func (s *Server) query(fn func(ctx context.Context, path string) (bool, error)) handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		p, err := decode[pathParams](raw)
		if err != nil {
			return nil, err
		}
		return fn(ctx, p.Path)
	}
}
