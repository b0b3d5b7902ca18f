package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"docvault/internal/api"
	"docvault/internal/creator"
	"docvault/internal/daemon"
	"docvault/internal/logging"
	"docvault/internal/logs"
	"docvault/internal/settings"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. shutdown is
// invoked when a client requests the daemon process to exit; it may be nil.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger, shutdown func()) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	svc := &service{daemon: d, logger: logger, ctx: serverCtx, shutdown: shutdown}
	if err := rpcServer.RegisterName("Docvault", svc); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.Impact("CLI commands may fail to reach the daemon"),
					logging.Hint("check socket permissions and restart the daemon if needed"),
				)
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
	go func() {
		<-s.ctx.Done()
		_ = s.listener.Close()
	}()
}

// Close stops the server and removes the socket file. Open client
// connections are served until the clients hang up.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.Impact("a stale socket may confuse the next start"),
			logging.Hint("remove the socket file manually"),
		)
	}
}

type service struct {
	daemon   *daemon.Daemon
	logger   *slog.Logger
	ctx      context.Context
	shutdown func()
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = s.daemon.Status(s.ctx).API()
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	if s.shutdown == nil {
		return errors.New("shutdown not supported by this daemon")
	}
	s.logger.Info("shutdown requested via IPC", logging.Event("daemon_shutdown_requested"))
	resp.Accepted = true
	// Reply before the process begins tearing down the socket.
	go s.shutdown()
	return nil
}

func (s *service) CreateFile(req CreateFileRequest, resp *CreateFileResponse) error {
	file, err := s.daemon.CreateFile(s.ctx, creator.Request{
		Extension: req.Extension,
		Title:     req.Title,
		Date:      req.Date,
		Tags:      req.Tags,
	})
	if err != nil {
		return err
	}
	resp.File = api.FromFile(file)
	return nil
}

func (s *service) Watch(req WatchRequest, resp *WatchResponse) error {
	changed, err := s.daemon.Watch(s.ctx, req.Path)
	if err != nil {
		return err
	}
	resp.Changed = changed
	return nil
}

func (s *service) Unwatch(req WatchRequest, resp *WatchResponse) error {
	changed, err := s.daemon.Unwatch(req.Path)
	if err != nil {
		return err
	}
	resp.Changed = changed
	return nil
}

func (s *service) Watching(_ WatchingRequest, resp *WatchingResponse) error {
	resp.Entries = api.FromEntries(s.daemon.Watching())
	return nil
}

func (s *service) ListFiles(req ListFilesRequest, resp *ListFilesResponse) error {
	filter, err := req.Records()
	if err != nil {
		return err
	}
	files, err := s.daemon.ListFiles(s.ctx, filter)
	if err != nil {
		return err
	}
	resp.Files = api.FromFiles(files)
	return nil
}

func (s *service) Tags(_ TagsRequest, resp *TagsResponse) error {
	tags, err := s.daemon.Tags(s.ctx)
	if err != nil {
		return err
	}
	resp.Tags = api.FromTags(tags)
	return nil
}

func (s *service) GetSettings(_ GetSettingsRequest, resp *SettingsResponse) error {
	current, err := s.daemon.Settings(s.ctx)
	if err != nil {
		return err
	}
	resp.Settings = api.FromSettings(current)
	return nil
}

func (s *service) SaveSettings(req SaveSettingsRequest, resp *SettingsResponse) error {
	saved, err := s.daemon.SaveSettings(s.ctx, settings.Patch{
		ArchiveRoot:             req.ArchiveRoot,
		NamingTemplate:          req.NamingTemplate,
		AutoArchiveDelaySeconds: req.AutoArchiveDelaySeconds,
	})
	if err != nil {
		return err
	}
	resp.Settings = api.FromSettings(saved)
	return nil
}

func (s *service) Reconcile(_ ReconcileRequest, resp *ReconcileResponse) error {
	report, err := s.daemon.Reconcile(s.ctx)
	resp.Replayed = report.Replayed
	resp.Dropped = report.Dropped
	resp.Remaining = report.Remaining
	resp.Malformed = report.Malformed
	return err
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	if !req.Follow {
		wait = 0
	}
	ctx := s.ctx
	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Wait:   wait,
	})
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.IntegrityCheck = health.IntegrityCheck
	resp.TotalFiles = health.TotalFiles
	resp.Error = health.Error
	if err != nil && health.Error == "" {
		return err
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
