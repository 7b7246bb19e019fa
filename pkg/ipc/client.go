package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"

	"mdview/pkg/errors"
	"mdview/pkg/logger"

	"github.com/google/uuid"
)

// Client sends requests to a Server and routes each response back to its
// caller by id.
type Client struct {
	writeMu sync.Mutex
	enc     *json.Encoder

	mu      sync.Mutex
	pending map[string]chan Response
	err     error
	done    chan struct{}
}

// NewClient starts reading responses from r in the background. The reader
// stops when r reaches EOF or fails; every later call returns that error.
func NewClient(r io.Reader, w io.Writer) *Client {
	c := &Client{
		enc:     json.NewEncoder(w),
		pending: make(map[string]chan Response),
		done:    make(chan struct{}),
	}
	go c.readLoop(r)
	return c
}

func (c *Client) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxFrameSize)

	for scanner.Scan() {
		var resp Response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			logger.Warn().Err(err).Msg("ipc: dropping malformed response")
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}

	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	c.mu.Lock()
	c.err = errors.NewWithError(errors.ExitCodeIPC, "core connection closed", err)
	c.pending = map[string]chan Response{}
	c.mu.Unlock()
	close(c.done)
}

// Call sends method with params and decodes the result into out, which may
// be nil. An error reported by the server comes back with its exit code.
func (c *Client) Call(ctx context.Context, method string, params, out any) error {
	req := Request{ID: uuid.New().String(), Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return errors.NewWithError(errors.ExitCodeIPC, "encode params", err)
		}
		req.Params = data
	}

	ch := make(chan Response, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.enc.Encode(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(req.ID)
		return errors.NewWithError(errors.ExitCodeIPC, "send request", err)
	}

	select {
	case resp := <-ch:
		return decodeResponse(resp, out)
	case <-c.done:
		// The last response may have landed just before the reader quit.
		select {
		case resp := <-ch:
			return decodeResponse(resp, out)
		default:
		}
		c.mu.Lock()
		err := c.err
		c.mu.Unlock()
		return err
	case <-ctx.Done():
		c.forget(req.ID)
		return ctx.Err()
	}
}

func decodeResponse(resp Response, out any) error {
	if resp.Error != nil {
		return resp.Error.toError()
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return errors.NewWithError(errors.ExitCodeIPC, "decode result", err)
	}
	return nil
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}
