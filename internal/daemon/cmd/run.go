package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/isaiah-harvey/logicrpc/internal/config"
	"github.com/isaiah-harvey/logicrpc/internal/daemon/discord"
	"github.com/isaiah-harvey/logicrpc/internal/daemon/presence"
	"github.com/isaiah-harvey/logicrpc/internal/daemon/probe"
	"github.com/isaiah-harvey/logicrpc/internal/daemon/server"
	"github.com/isaiah-harvey/logicrpc/internal/daemon/tray"
	"github.com/isaiah-harvey/logicrpc/internal/daemon/watcher"
	"github.com/isaiah-harvey/logicrpc/internal/login"
	"github.com/isaiah-harvey/logicrpc/internal/models"
)

const connectTimeout = 5 * time.Second

// daemon holds everything the process owns between start and shutdown.
type daemon struct {
	opts      presence.LoopOptions
	lifecycle *presence.Lifecycle
	srv       *server.Server
	watcher   *watcher.Watcher
	logCloser io.Closer
}

func run(ctx context.Context) error {
	// Ensure global directory exists
	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}

	// Check if daemon is already running
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon already running on port %d (PID %d)", info.Port, info.PID)
	}

	d, err := newDaemon()
	if err != nil {
		return err
	}

	if foreground {
		log.Println("Running in foreground mode (no menu bar item)")
		return d.runForeground(ctx)
	}
	log.Println("Running in background mode (with menu bar item)")
	d.runWithTray()
	return nil
}

func newDaemon() (*daemon, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	closer, err := config.SetupDaemonLog("[logicrpcd] ", !foreground, settings.Log)
	if err != nil {
		return nil, err
	}

	opts := presence.OptionsFromConfig(settings.Presence)
	connect := discord.NewConnector(settings.ResolvedClientID(), settings.Discord)
	lc := presence.NewLifecycle(connect, probe.New(settings.Target, nil), opts)

	srv, err := server.New(port, lc)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	d := &daemon{
		opts:      opts,
		lifecycle: lc,
		srv:       srv,
		logCloser: closer,
	}

	if w, err := watcher.New(""); err != nil {
		log.Printf("[watcher] disabled: %v", err)
	} else {
		d.watcher = w
	}
	return d, nil
}

// start records the daemon and starts presence reporting. A publisher that
// cannot connect leaves the daemon running without presence.
func (d *daemon) start(ctx context.Context) error {
	info := models.NewDaemonInfo(server.Host, d.srv.Port(), os.Getpid())
	if err := config.SaveDaemonInfo(info); err != nil {
		return fmt.Errorf("failed to write daemon info: %w", err)
	}
	log.Printf("Daemon started on port %d (PID %d)", d.srv.Port(), os.Getpid())

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := d.lifecycle.StartIdle(connectCtx); err != nil {
		log.Printf("[presence] presence disabled: %v", err)
		d.srv.SetPresenceError(err)
	}

	if d.watcher != nil {
		if err := d.watcher.Start(); err != nil {
			log.Printf("[watcher] failed to watch settings: %v", err)
			d.watcher = nil
		}
	}
	return nil
}

// watchSettings applies settings edits to the running loop until ctx is
// done. Only the status templates are applied live; the other settings take
// effect on restart.
func (d *daemon) watchSettings(ctx context.Context) {
	if d.watcher == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.watcher.Events():
			settings := models.NewSettings()
			if ev.Type == watcher.EventSettingsChanged {
				loaded, err := config.LoadSettings()
				if err != nil {
					log.Printf("[watcher] keeping current settings: %v", err)
					continue
				}
				settings = loaded
			}
			d.lifecycle.SetFormat(presence.FormatFromConfig(settings.Presence))
			log.Printf("[watcher] presence format reloaded")
		}
	}
}

// shutdown stops presence first so the final clear goes out while the
// process is still healthy, then the control server.
func (d *daemon) shutdown() {
	d.lifecycle.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.ShutdownGrace())
	if err := d.lifecycle.Wait(ctx); err != nil {
		log.Printf("[presence] loop did not stop in time: %v", err)
	}
	cancel()

	if d.watcher != nil {
		d.watcher.Stop()
	}
	d.srv.Stop()

	if err := config.RemoveDaemonInfo(); err != nil {
		log.Printf("Failed to remove daemon info: %v", err)
	}
	log.Println("Daemon stopped")
	_ = d.logCloser.Close()
}

// runForeground runs the daemon without the menu bar item, blocking on
// signals.
func (d *daemon) runForeground(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.start(ctx); err != nil {
		d.shutdown()
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := d.srv.Serve(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		d.watchSettings(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Printf("Shutting down...")
		d.shutdown()
		return nil
	})

	return g.Wait()
}

// runWithTray runs the daemon with the menu bar item on the main goroutine.
// systray.Run must occupy the main goroutine on macOS (Cocoa requirement).
func (d *daemon) runWithTray() {
	ctx, cancel := context.WithCancel(context.Background())

	d.lifecycle.OnChange(tray.UpdatePresence)

	onStart := func() {
		if err := d.start(ctx); err != nil {
			log.Printf("Failed to start: %v", err)
			tray.Quit()
			return
		}

		// Serve gRPC in background
		go func() {
			if err := d.srv.Serve(); err != nil {
				log.Printf("Server error: %v", err)
				tray.Quit()
			}
		}()

		go d.watchSettings(ctx)

		// Handle OS signals: quit tray on SIGINT/SIGTERM
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			log.Printf("Received signal %v, shutting down...", sig)
			tray.Quit()
		}()
	}

	onExit := func() {
		cancel()
		d.shutdown()
	}

	// This blocks the main goroutine until tray exits.
	tray.Run(d.srv, loginItem(), onStart, onExit)
}

// loginItem returns the launch agent for this executable, or nil where
// launch agents are unsupported.
func loginItem() tray.LoginItem {
	if !login.Supported() {
		return nil
	}
	exe, err := os.Executable()
	if err != nil {
		log.Printf("[login] cannot resolve executable: %v", err)
		return nil
	}
	agent, err := login.New(exe)
	if err != nil {
		log.Printf("[login] %v", err)
		return nil
	}
	return agent
}
