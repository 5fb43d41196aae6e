package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	// RequestTimeout bounds how long a client may take to send its request.
	RequestTimeout = 2 * time.Second
	// maxRequestBytes caps one request line.
	maxRequestBytes = 4 << 10
)

// Handler answers one owner command.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve answers clients on listener until ctx is done or the listener closes.
// In-flight connections are closed on shutdown so a silent client never
// holds Serve open.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		conns = map[net.Conn]struct{}{}
	)

	stop := context.AfterFunc(ctx, func() {
		_ = listener.Close()
		mu.Lock()
		for conn := range conns {
			_ = conn.Close()
		}
		mu.Unlock()
	})
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			wg.Wait()
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		mu.Lock()
		conns[conn] = struct{}{}
		mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				mu.Lock()
				delete(conns, conn)
				mu.Unlock()
				_ = conn.Close()
			}()
			serveConn(ctx, conn, handler)
		}()
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) {
	_ = conn.SetReadDeadline(time.Now().Add(RequestTimeout))

	req, err := readRequest(conn)
	var resp Response
	if err != nil {
		resp = Response{OK: false, Error: err.Error()}
	} else {
		resp = handler.Handle(ctx, req)
	}

	_ = conn.SetWriteDeadline(time.Now().Add(RequestTimeout))
	_ = json.NewEncoder(conn).Encode(resp)
}

func readRequest(r io.Reader) (Request, error) {
	reader := bufio.NewReader(io.LimitReader(r, maxRequestBytes))
	line, err := reader.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) >= maxRequestBytes {
			return Request{}, fmt.Errorf("read request: exceeds %d bytes", maxRequestBytes)
		}
		return Request{}, fmt.Errorf("read request: %w", err)
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	req.Command = strings.TrimSpace(req.Command)
	if req.Command == "" {
		return Request{}, errors.New("decode request: missing command")
	}
	return req, nil
}
