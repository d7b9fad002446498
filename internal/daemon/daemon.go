// Package daemon runs the troupe background process: a UDS server that
// resolves placement specs and launches resources on request.
package daemon

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ykomatsu/troupe/internal/events"
	"github.com/ykomatsu/troupe/internal/lock"
	"github.com/ykomatsu/troupe/internal/model"
	"github.com/ykomatsu/troupe/internal/spawn"
	"github.com/ykomatsu/troupe/internal/uds"
	"github.com/ykomatsu/troupe/internal/workspace"
	atomicyaml "github.com/ykomatsu/troupe/internal/yaml"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func parseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// EnvFactory builds the environment adapter for one request. Allows
// testing without tmux.
type EnvFactory func(sessionName string) (workspace.Adapter, error)

// ExecFactory builds the execution adapter for one request.
type ExecFactory func() spawn.Executor

// Daemon is the troupe background process.
type Daemon struct {
	troupeDir string
	logger    *log.Logger
	logFile   io.Closer

	configMu sync.RWMutex
	config   model.Config
	logLevel LogLevel

	fileLock *lock.FileLock
	server   *uds.Server
	watcher  *fsnotify.Watcher
	bus      *events.Bus
	audit    *events.AuditLogger
	lockMap  *lock.MutexMap

	envFactory  EnvFactory
	execFactory ExecFactory

	wg       sync.WaitGroup
	done     chan struct{}
	shutdown sync.Once
}

// New creates a Daemon logging to .troupe/logs/daemon.log.
func New(troupeDir string, cfg model.Config) (*Daemon, error) {
	logPath := filepath.Join(troupeDir, "logs", "daemon.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open daemon log: %w", err)
	}
	return newDaemon(troupeDir, cfg, logFile, logFile)
}

// newDaemon is the internal constructor for testing.
func newDaemon(troupeDir string, cfg model.Config, w io.Writer, closer io.Closer) (*Daemon, error) {
	d := &Daemon{
		troupeDir: troupeDir,
		logger:    log.New(w, "", 0),
		logFile:   closer,
		config:    cfg,
		logLevel:  parseLogLevel(cfg.Logging.Level),
		fileLock:  lock.NewFileLock(filepath.Join(troupeDir, "locks", "daemon.lock")),
		server:    uds.NewServer(filepath.Join(troupeDir, uds.DefaultSocketName)),
		bus:       events.NewBus(256),
		lockMap:   lock.NewMutexMap(),
		done:      make(chan struct{}),
		envFactory: func(sessionName string) (workspace.Adapter, error) {
			return workspace.NewTmuxAdapter(sessionName)
		},
		execFactory: func() spawn.Executor {
			return spawn.TmuxExecutor{}
		},
	}
	return d, nil
}

// SetEnvFactory overrides the environment adapter factory for testing.
func (d *Daemon) SetEnvFactory(f EnvFactory) { d.envFactory = f }

// SetExecFactory overrides the execution adapter factory for testing.
func (d *Daemon) SetExecFactory(f ExecFactory) { d.execFactory = f }

// Run starts the daemon and blocks until shutdown completes.
func (d *Daemon) Run() error {
	if err := d.Start(); err != nil {
		return err
	}
	d.waitSignals()
	return nil
}

// Start brings the daemon up without blocking on signals.
func (d *Daemon) Start() error {
	if err := d.fileLock.TryLock(); err != nil {
		return fmt.Errorf("daemon lock: %w", err)
	}
	d.log(LogLevelInfo, "daemon starting pid=%d", os.Getpid())

	// Audit log subscriber (best-effort: a missing logs dir disables it).
	auditPath := filepath.Join(d.troupeDir, "logs", "audit.log")
	if audit, err := events.NewAuditLogger(auditPath); err == nil {
		d.audit = audit
		d.audit.Attach(d.bus,
			events.EventSlotCreated, events.EventResourceSpawned,
			events.EventSpawnFailed, events.EventBatchCompleted)
	} else {
		d.log(LogLevelWarn, "audit log disabled error=%v", err)
	}

	// Watch config.yaml for hot reload of spawn/waiter defaults.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.cleanup()
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	d.watcher = watcher
	if err := watcher.Add(d.troupeDir); err != nil {
		d.cleanup()
		return fmt.Errorf("watch %s: %w", d.troupeDir, err)
	}

	d.registerHandlers()

	if err := d.server.Start(); err != nil {
		d.cleanup()
		return fmt.Errorf("start UDS server: %w", err)
	}
	d.log(LogLevelInfo, "UDS server listening on %s", filepath.Join(d.troupeDir, uds.DefaultSocketName))

	d.wg.Add(1)
	go d.fsnotifyLoop()

	d.log(LogLevelInfo, "daemon ready")
	return nil
}

// fsnotifyLoop reloads configuration when config.yaml changes.
func (d *Daemon) fsnotifyLoop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.done:
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != "config.yaml" {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				d.reloadConfig(event.Name)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.log(LogLevelError, "fsnotify error=%v", err)
		}
	}
}

func (d *Daemon) reloadConfig(path string) {
	var cfg model.Config
	if err := atomicyaml.Load(path, &cfg); err != nil {
		d.log(LogLevelWarn, "config reload failed error=%v", err)
		return
	}
	d.configMu.Lock()
	d.config = cfg
	d.logLevel = parseLogLevel(cfg.Logging.Level)
	d.configMu.Unlock()
	d.log(LogLevelInfo, "config reloaded session=%s", cfg.Session.Name)
}

func (d *Daemon) getConfig() model.Config {
	d.configMu.RLock()
	defer d.configMu.RUnlock()
	return d.config
}

// waitSignals blocks until a shutdown signal is received.
func (d *Daemon) waitSignals() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigCh
	d.log(LogLevelInfo, "received signal=%s, initiating graceful shutdown", sig)

	// Second signal forces exit.
	go func() {
		<-sigCh
		d.log(LogLevelWarn, "received second signal, forcing exit")
		os.Exit(1)
	}()

	d.Shutdown()
}

// Shutdown performs graceful shutdown (idempotent).
func (d *Daemon) Shutdown() {
	d.shutdown.Do(func() {
		d.log(LogLevelInfo, "shutdown started")

		close(d.done)
		if d.watcher != nil {
			d.watcher.Close()
		}
		if d.server != nil {
			d.server.Stop()
		}

		timeout := d.getConfig().Daemon.ShutdownTimeoutSec
		if timeout <= 0 {
			timeout = 30
		}

		drained := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(drained)
		}()

		select {
		case <-drained:
			d.log(LogLevelInfo, "all goroutines drained")
		case <-time.After(time.Duration(timeout) * time.Second):
			d.log(LogLevelWarn, "shutdown timeout after %ds, some operations may be incomplete", timeout)
		}

		d.cleanup()
		d.log(LogLevelInfo, "daemon stopped")
	})
}

func (d *Daemon) cleanup() {
	os.Remove(filepath.Join(d.troupeDir, uds.DefaultSocketName))
	d.fileLock.Unlock()
	d.bus.Close()
	if d.audit != nil {
		d.audit.Close()
	}
	if d.logFile != nil {
		d.logFile.Close()
	}
}

func (d *Daemon) log(level LogLevel, format string, args ...any) {
	d.configMu.RLock()
	gate := d.logLevel
	d.configMu.RUnlock()
	if level < gate {
		return
	}
	levelStr := "INFO"
	switch level {
	case LogLevelDebug:
		levelStr = "DEBUG"
	case LogLevelWarn:
		levelStr = "WARN"
	case LogLevelError:
		levelStr = "ERROR"
	}
	msg := fmt.Sprintf(format, args...)
	d.logger.Printf("%s %s daemon: %s", time.Now().Format(time.RFC3339), levelStr, msg)
}
