package session

import (
	"context"
	"io"
	"sync"
)

// Conn is the direct channel between two matched peers. How the channel
// is established (rendezvous, encryption) is the transport's concern;
// the session protocol only needs ordered message exchange.
type Conn interface {
	Send(ctx context.Context, m Message) error
	Recv(ctx context.Context) (Message, error)
	Close() error
}

// Pipe returns two connected in-memory Conns, one per peer. Closing
// either end unblocks both. Used by tests to run a full host/guest
// session without a network.
func Pipe() (Conn, Conn) {
	ab := make(chan Message, 8)
	ba := make(chan Message, 8)
	done := make(chan struct{})
	var once sync.Once
	closeDone := func() { once.Do(func() { close(done) }) }

	a := &pipeConn{out: ab, in: ba, done: done, close: closeDone}
	b := &pipeConn{out: ba, in: ab, done: done, close: closeDone}
	return a, b
}

type pipeConn struct {
	out   chan Message
	in    chan Message
	done  chan struct{}
	close func()
}

func (p *pipeConn) Send(ctx context.Context, m Message) error {
	select {
	case p.out <- m:
		return nil
	case <-p.done:
		return io.ErrClosedPipe
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeConn) Recv(ctx context.Context) (Message, error) {
	// drain messages already in flight even after a close
	select {
	case m := <-p.in:
		return m, nil
	default:
	}
	select {
	case m := <-p.in:
		return m, nil
	case <-p.done:
		return Message{}, io.EOF
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (p *pipeConn) Close() error {
	p.close()
	return nil
}
