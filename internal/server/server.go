package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/slurm-tools/pkgbuilder/internal/paths"
	"github.com/slurm-tools/pkgbuilder/internal/protocol"
	"github.com/slurm-tools/pkgbuilder/internal/runtime"
)

const (

	// Default containerd socket address.
	DefaultContainerdAddress = "/run/containerd/containerd.sock"

	// Default containerd namespace for images and containers.
	DefaultContainerdNamespace = "pkgbuilder"

	// File mode applied to the Unix socket. Owner gets read-write (required
	// for connect); group and others get no access. Anyone who can reach
	// the socket can run arbitrary build steps, so access stays with the
	// owning user.
	socketMode = 0600
)

// Holds server configuration.
type Config struct {
	SocketPath          string // Override for the Unix socket path. Empty uses the default.
	ContainerdAddress   string // Containerd socket address. Empty uses [DefaultContainerdAddress].
	ContainerdNamespace string // Containerd namespace. Empty uses [DefaultContainerdNamespace].
	TargetsDir          string // Directory containing target manifests.
	Output              string // Host directory for artifacts of daemon builds.
}

// Listens on a Unix domain socket and dispatches commands.
type Server struct {
	socketPath string          // Path to the Unix socket file.
	targetsDir string          // Directory containing target manifests.
	output     string          // Output directory for daemon builds.
	engine     *runtime.Engine // Containerd-backed container runtime.
	listener   net.Listener    // Listener for incoming connections.
	startedAt  time.Time       // Timestamp when the server started.
	builds     int             // Total number of build commands processed.
	done       chan struct{}   // Channel to signal server shutdown.
	stopOnce   sync.Once       // Ensures shutdown runs exactly once.
	mu         sync.Mutex      // Protects builds and serializes build runs.
}

// Creates a new server instance.
//
// The socket is not opened until [Start] is called.
func New(cfg Config) (*Server, error) {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = paths.Socket()
	}

	address := cfg.ContainerdAddress
	if address == "" {
		address = DefaultContainerdAddress
	}

	namespace := cfg.ContainerdNamespace
	if namespace == "" {
		namespace = DefaultContainerdNamespace
	}

	eng, err := runtime.Connect(address, namespace)
	if err != nil {
		return nil, err
	}

	return &Server{
		socketPath: socketPath,
		targetsDir: cfg.TargetsDir,
		output:     cfg.Output,
		engine:     eng,
		done:       make(chan struct{}),
	}, nil
}

// Opens the Unix socket and begins accepting connections.
func (s *Server) Start() error {
	listener, err := listen(s.socketPath)
	if err != nil {
		return err
	}

	s.listener = listener
	s.startedAt = time.Now()

	if err := writePID(); err != nil {
		slog.Warn("failed to write PID file", "error", err)
	}

	slog.Info("server listening on socket", "path", s.socketPath)

	go s.accept()
	return nil
}

// Creates the Unix socket listener, removes any stale socket from a previous
// run, and applies permissions.
func listen(socketPath string) (net.Listener, error) {
	if err := os.MkdirAll(paths.Runtime(), paths.DefaultDirMode); err != nil {
		return nil, eris.Wrap(err, "failed to create runtime directory")
	}

	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to listen on %s", socketPath)
	}

	if err := os.Chmod(socketPath, socketMode); err != nil {
		listener.Close()
		return nil, eris.Wrapf(err, "failed to chmod socket %s", socketPath)
	}

	return listener, nil
}

// Shuts down the server and cleans up resources.
//
// Safe to call more than once: a shutdown command and a termination signal
// can both reach Stop, and only the first call performs the teardown.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)

		if s.listener != nil {
			s.listener.Close()
		}

		if s.engine != nil {
			s.engine.Close()
		}

		os.Remove(s.socketPath)
		os.Remove(paths.PIDFile())
	})

	return nil
}

// Blocks until the server stops.
func (s *Server) Wait() {
	<-s.done
}

// Accepts connections in a loop until the server shuts down.
func (s *Server) accept() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				slog.Error("accept error", "error", err)
				continue
			}
		}

		go s.handle(conn)
	}
}

// Processes a single connection.
//
// Reads one newline-delimited JSON message, dispatches the command, and
// writes the response. The connection is closed after one exchange.
func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	line, err := reader.ReadBytes('\n')
	if err != nil {
		slog.Error("read error", "error", err)
		return
	}

	env, payload, err := protocol.Decode(line)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	slog.Info("command received", "command", env.Command)

	ctx, cancel := contextWithDisconnect(context.Background(), reader)
	defer cancel()

	s.dispatch(ctx, conn, env.Command, payload)
}

// Routes a command to the appropriate handler.
func (s *Server) dispatch(ctx context.Context, conn net.Conn, cmd protocol.Command, payload json.RawMessage) {
	switch cmd {
	case protocol.CmdBuild:
		s.handleBuild(ctx, conn, payload)
	case protocol.CmdTargets:
		s.handleTargets(conn)
	case protocol.CmdStatus:
		s.handleStatus(conn)
	case protocol.CmdShutdown:
		s.handleShutdown(conn)
	default:
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{
			Message: fmt.Sprintf("unknown command: %s", cmd),
		})
	}
}

// Writes a JSON envelope response to the connection.
func (s *Server) respond(conn net.Conn, cmd protocol.Command, payload any) {
	data, err := protocol.Encode(cmd, payload)
	if err != nil {
		slog.Error("encode response failed", "error", err)
		return
	}
	data = append(data, '\n')
	conn.Write(data)
}

// Writes the daemon PID to the PID file so clients can detect whether the
// daemon is already running and send it signals.
func writePID() error {
	if err := os.MkdirAll(paths.Runtime(), paths.DefaultDirMode); err != nil {
		return err
	}
	return os.WriteFile(paths.PIDFile(), fmt.Appendf(nil, "%d", os.Getpid()), paths.DefaultFileMode)
}

// Returns a derived context that is cancelled when the remote end of the
// connection closes.
//
// Detection works by reading from r in a background goroutine. The read
// blocks until the peer closes the connection, at which point it returns an
// error and the derived context is cancelled, aborting an in-flight build.
// No further data is expected on r after the request envelope; if data
// arrives anyway it is discarded and the context is cancelled prematurely.
// The returned [context.CancelFunc] must always be called to release
// resources, even if the connection closes on its own.
func contextWithDisconnect(parent context.Context, r io.Reader) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		buf := make([]byte, 1)
		r.Read(buf)
		cancel()
	}()

	return ctx, cancel
}
