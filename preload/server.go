package preload

import (
	"context"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bittoy/corpuspipe/corpuserr"
	"github.com/bittoy/corpuspipe/registry"
)

// connectTimeout bounds how long Accept waits for a connection before
// checking for shutdown, per spec §5 "The preloader applies a short
// connection/accept timeout per request."
const connectTimeout = 500 * time.Millisecond

// Server is the preloader process: a Unix-domain-socket listener fronting a
// per-processor worker pool, per spec §4.F.
type Server struct {
	socketPath string
	listener   *net.UnixListener

	mu    sync.RWMutex
	pools map[string]*procPool

	wg       sync.WaitGroup
	draining chan struct{}
}

// NewServer builds the preloader's worker pools by calling each configured
// processor's preload hook, per spec §4.F "Worker pool": "For each
// preloaded processor, spawn P workers."
func NewServer(socketPath string, cfg *Config, reg *registry.Registry) (*Server, error) {
	s := &Server{
		socketPath: socketPath,
		pools:      map[string]*procPool{},
		draining:   make(chan struct{}),
	}

	for _, pc := range cfg.Processors {
		impl, ok := reg.Get(pc.ProcessorID)
		if !ok {
			return nil, corpuserr.New(corpuserr.KindProcessorInvalid, pc.ProcessorID, nil)
		}
		if impl.OnPreload == nil {
			return nil, corpuserr.New(corpuserr.KindProcessorInvalid, pc.ProcessorID,
				errNoPreloadHook{})
		}
		fp := Fingerprint(pc.Bindings)
		pool, err := newProcPool(impl, pc.Bindings, fp, pc.Workers)
		if err != nil {
			return nil, corpuserr.New(corpuserr.KindSocketError, pc.ProcessorID, err)
		}
		s.pools[pc.ProcessorID] = pool
	}
	return s, nil
}

type errNoPreloadHook struct{}

func (errNoPreloadHook) Error() string { return "processor declares no preload hook" }

// Listen binds the Unix socket, removing any stale socket file left by a
// prior crashed instance.
func (s *Server) Listen() error {
	_ = os.Remove(s.socketPath)
	addr, err := net.ResolveUnixAddr("unix", s.socketPath)
	if err != nil {
		return corpuserr.New(corpuserr.KindSocketError, s.socketPath, err)
	}
	l, err := net.ListenUnix("unix", addr)
	if err != nil {
		return corpuserr.New(corpuserr.KindSocketError, s.socketPath, err)
	}
	s.listener = l
	return nil
}

// Serve accepts connections until ctx is cancelled or Stop is called, per
// spec §4.F "Shutdown": drains in-flight work before the socket file is
// removed. It also shuts down early if the socket file disappears out from
// under the listener (an operator or another process removing it).
func (s *Server) Serve(ctx context.Context) error {
	defer s.cleanupSocket()

	watch, err := NewSocketWatch(s.socketPath)
	if err == nil {
		defer watch.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			s.drain()
			return nil
		case <-s.draining:
			s.wg.Wait()
			return nil
		case <-watchChan(watch):
			s.drain()
			return nil
		default:
		}

		_ = s.listener.SetDeadline(time.Now().Add(connectTimeout))
		conn, err := s.listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				s.drain()
				return nil
			default:
				continue
			}
		}

		s.wg.Add(1)
		go s.handle(conn)
	}
}

// handle serves every framed request on one connection until it closes.
func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	for {
		var req Request
		if err := readFrame(conn, &req); err != nil {
			return
		}
		resp := s.dispatch(req)
		if err := writeFrame(conn, resp); err != nil {
			return
		}
	}
}

// dispatch selects an idle worker for the requested processor, runs the
// job, and returns its outcome, per spec §4.F "Dispatch" and "Configuration
// consistency".
func (s *Server) dispatch(req Request) Response {
	s.mu.RLock()
	pool, ok := s.pools[req.ProcessorID]
	s.mu.RUnlock()
	if !ok {
		requestsTotal.WithLabelValues(req.ProcessorID, "unknown_processor").Inc()
		return Response{ID: req.ID, Outcome: OutcomeError, Error: "processor not preloaded"}
	}

	if req.Fingerprint != pool.fingerprint {
		requestsTotal.WithLabelValues(req.ProcessorID, string(OutcomeConfigMismatch)).Inc()
		return Response{ID: req.ID, Outcome: OutcomeConfigMismatch}
	}

	w := pool.acquire()
	if w == nil {
		requestsTotal.WithLabelValues(req.ProcessorID, string(OutcomeRefusedBusy)).Inc()
		return Response{ID: req.ID, Outcome: OutcomeRefusedBusy}
	}
	defer pool.release(w)

	if err := pool.run(w, req.Bindings); err != nil {
		requestsTotal.WithLabelValues(req.ProcessorID, string(OutcomeError)).Inc()
		return Response{ID: req.ID, Outcome: OutcomeError, Error: err.Error()}
	}
	requestsTotal.WithLabelValues(req.ProcessorID, string(OutcomeOK)).Inc()
	return Response{ID: req.ID, Outcome: OutcomeOK}
}

// Stop signals Serve to drain in-flight work and return; Serve then closes
// the listener and removes the socket file. No cleanup hook is run at
// shutdown.
func (s *Server) Stop() {
	select {
	case <-s.draining:
	default:
		close(s.draining)
	}
}

func (s *Server) drain() {
	s.Stop()
	s.wg.Wait()
}

func (s *Server) cleanupSocket() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
	_ = os.Remove(s.socketPath)
}

// watchChan returns w's removal channel, or a nil (never-fires) channel if
// the watcher failed to start — watching the socket is best-effort.
func watchChan(w *SocketWatch) <-chan struct{} {
	if w == nil {
		return nil
	}
	return w.Removed()
}
