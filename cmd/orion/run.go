package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/orionwm/orion/internal/config"
	"github.com/orionwm/orion/internal/ipc"
	"github.com/orionwm/orion/internal/reactor"
	"github.com/orionwm/orion/internal/runtimepath"
	"github.com/orionwm/orion/internal/wm"
	"github.com/orionwm/orion/internal/x11"
)

func runWM(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	cfgPath := fs.String("config", "", "Config file path (default: ~/.config/orion/config.yaml)")
	display := fs.String("display", "", "X display to manage (default: config display, then $DISPLAY)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: orion run [--config PATH] [--display DISPLAY]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Take over the display as its window manager and serve the control socket.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := res.Config
	if *display != "" {
		cfg.Display = *display
	}

	logger, err := config.NewLogger(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger.WithField("files", res.Files).Debug("configuration loaded")

	if err := serveDisplay(cfg, logger); err != nil {
		logger.WithError(err).Error("window manager stopped")
		return 1
	}
	return 0
}

// serveDisplay runs the window manager until shutdown, a signal, or the
// loss of the display connection.
func serveDisplay(cfg *config.Config, logger *log.Entry) error {
	sess, err := x11.Connect(cfg.Display, x11.Options{Logger: logger.WithField("component", "x11")})
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.BecomeManager(wm.RootEventMask); err != nil {
		if errors.Is(err, x11.ErrAnotherWM) {
			return fmt.Errorf("%s: %w", sess.Display(), err)
		}
		return err
	}

	opts, err := cfg.ManagerOptions(logger.WithField("component", "wm"))
	if err != nil {
		return err
	}
	opts.Display = sess.Display()
	m := wm.New(sess, opts)
	if err := m.Start(); err != nil {
		return fmt.Errorf("starting window manager: %w", err)
	}

	path, err := runtimepath.SocketPath(cfg.SocketPrefix, sess.Display())
	if err != nil {
		return err
	}
	if err := runtimepath.EnsureDir(path); err != nil {
		return err
	}
	srv, err := ipc.Listen(path, ipc.ServerOptions{
		Timeout:      cfg.ControlTimeout,
		SameUserOnly: true,
		Logger:       logger.WithField("component", "ipc"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveCtx, cancelServe := context.WithCancel(ctx)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(serveCtx) }()

	logger.WithFields(log.Fields{"display": sess.Display(), "socket": path}).Info("orion started")
	runErr := reactor.New(m, sess.Run(ctx), srv.Calls(), logger).Run(ctx)

	cancelServe()
	if err := <-served; err != nil {
		logger.WithError(err).Warn("control server stopped with an error")
	}
	return runErr
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFromPath(path)
}
