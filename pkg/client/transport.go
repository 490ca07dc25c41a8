package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"sync"

	"github.com/nappernick/mcp-wrapper/pkg/jsonrpc"
)

// Transport delivers one request envelope and returns its response.
type Transport interface {
	Call(ctx context.Context, req jsonrpc.Request) (jsonrpc.Response, error)
	Close() error
}

type httpTransport struct {
	url string

	client *http.Client
}

func newHTTPTransport(url string, client *http.Client) *httpTransport {
	if client == nil {
		client = http.DefaultClient
	}

	return &httpTransport{
		url: strings.TrimRight(url, "/") + "/rpc",

		client: client,
	}
}

func (t *httpTransport) Call(ctx context.Context, req jsonrpc.Request) (jsonrpc.Response, error) {
	data, err := json.Marshal(req)

	if err != nil {
		return jsonrpc.Response{}, err
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(data))

	if err != nil {
		return jsonrpc.Response{}, err
	}

	r.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(r)

	if err != nil {
		return jsonrpc.Response{}, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return jsonrpc.Response{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var envelope jsonrpc.Response

	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return jsonrpc.Response{}, err
	}

	return envelope, nil
}

func (t *httpTransport) Close() error {
	return nil
}

// stdioTransport runs the server as a subprocess and exchanges
// newline-delimited envelopes over its pipes. Calls are serialized; the
// subprocess handles one conversation at a time anyway.
type stdioTransport struct {
	mu sync.Mutex

	cmd *exec.Cmd

	in  io.WriteCloser
	out *bufio.Scanner
}

func newStdioTransport(command string, args ...string) (*stdioTransport, error) {
	cmd := exec.Command(command, args...)

	in, err := cmd.StdinPipe()

	if err != nil {
		return nil, err
	}

	out, err := cmd.StdoutPipe()

	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	return &stdioTransport{
		cmd: cmd,

		in:  in,
		out: scanner,
	}, nil
}

func (t *stdioTransport) Call(ctx context.Context, req jsonrpc.Request) (jsonrpc.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := json.Marshal(req)

	if err != nil {
		return jsonrpc.Response{}, err
	}

	data = append(data, '\n')

	if _, err := t.in.Write(data); err != nil {
		return jsonrpc.Response{}, err
	}

	if !t.out.Scan() {
		if err := t.out.Err(); err != nil {
			return jsonrpc.Response{}, err
		}

		return jsonrpc.Response{}, io.ErrUnexpectedEOF
	}

	var envelope jsonrpc.Response

	if err := json.Unmarshal(t.out.Bytes(), &envelope); err != nil {
		return jsonrpc.Response{}, err
	}

	return envelope, nil
}

func (t *stdioTransport) Close() error {
	t.in.Close()

	return t.cmd.Wait()
}

// localTransport invokes the dispatcher in-process.
type localTransport struct {
	dispatcher *jsonrpc.Dispatcher
}

func (t localTransport) Call(ctx context.Context, req jsonrpc.Request) (jsonrpc.Response, error) {
	return t.dispatcher.Dispatch(ctx, req), nil
}

func (t localTransport) Close() error {
	return nil
}
