package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lautenbacher.net/lightoy/config"
	"lautenbacher.net/lightoy/control"
	"lautenbacher.net/lightoy/effect"
	"lautenbacher.net/lightoy/input"
	"lautenbacher.net/lightoy/location"
	"lautenbacher.net/lightoy/logging"
	"lautenbacher.net/lightoy/output"
	"lautenbacher.net/lightoy/render"
	"lautenbacher.net/lightoy/session"
)

func main() {
	cfile := flag.String("config", config.CONFILE, "Config file to use")
	noop := flag.Bool("noop", false, "Discard frames instead of sending them to the LED controller")
	effectName := flag.String("effect", "", "Initial effect, overrides the config file")
	listen := flag.String("listen", "", "Control listen address, overrides the config file")
	flag.Parse()

	conf, err := config.ReadConfig(*cfile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	if *noop {
		conf.Output.Type = config.OutputNoop
	}
	if *effectName != "" {
		conf.Render.InitialEffect = *effectName
	}
	if *listen != "" {
		conf.Control.Listen = *listen
	}
	if err := conf.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	if err := logging.Init(conf.Logging.Level, conf.Logging.Format, conf.Logging.File != "", conf.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inst, err := newApp(conf)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		logging.Close()
		os.Exit(1)
	}
	if err := inst.run(ctx, *cfile); err != nil {
		slog.Error("Exiting with error", "error", err)
		logging.Close()
		os.Exit(1)
	}
	slog.Info("Bye")
}

type app struct {
	conf *config.Config
	// last config pushed into the session
	applied *config.Config
	session *session.Session
	out     *output.Resilient
	loop    *render.Loop
	server  *control.Server
}

func newApp(conf *config.Config) (*app, error) {
	n := conf.Render.LedsTotal
	s := session.NewSession(effect.NewRegistry(n, nil), input.NewProcessor(conf.Input), nil)
	if err := conf.Apply(s); err != nil {
		return nil, err
	}

	transport, err := openOutput(conf.Output)
	if err != nil {
		return nil, err
	}
	out := output.NewResilient(strings.ToLower(conf.Output.Type), transport, conf.Output.RetryPolicy())

	loop, err := render.NewLoop(s, location.NewSpiral(n), out, conf.Render.RefreshRate)
	if err != nil {
		out.Close()
		return nil, err
	}
	loop.SetMaxLag(conf.Render.MaxLag)

	inst := &app{
		conf:    conf,
		applied: conf,
		session: s,
		out:     out,
		loop:    loop,
	}
	return inst, nil
}

func openOutput(conf config.OutputConfig) (output.Output, error) {
	switch strings.ToLower(conf.Type) {
	case config.OutputNoop:
		slog.Info("Frames are discarded, no LED controller attached")
		return output.NewNoop(), nil
	case config.OutputSerial:
		return output.NewSerial(conf.Device, conf.Baud, conf.WriteTimeout)
	case config.OutputSPI:
		return output.NewSPI(conf.SPIOutputConfig())
	default:
		return nil, fmt.Errorf("unknown output type %q", conf.Type)
	}
}

// run blocks until ctx is done. cfile is watched for runtime changes and
// served for editing; an empty cfile disables both.
func (a *app) run(ctx context.Context, cfile string) error {
	defer func() {
		if err := a.out.Close(); err != nil {
			slog.Warn("Error closing output", "error", err)
		}
	}()

	go a.reportFaults(ctx)

	extra := map[string]http.Handler{}
	if cfile != "" {
		if err := config.Watch(ctx, cfile, a.reload); err != nil {
			slog.Warn("Config changes will not be picked up", "error", err)
		}
		extra["/api/config"] = config.ConfigHandler(cfile)
	}
	a.server = control.NewServer(a.session, extra)

	serverErr := make(chan error, 1)
	if a.conf.Control.Listen != "" {
		srv := &http.Server{
			Addr:              a.conf.Control.Listen,
			Handler:           a.server,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Control server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Error shutting down control server", "error", err)
			}
		}()
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	loopErr := make(chan error, 1)
	go func() { loopErr <- a.loop.Run(loopCtx) }()

	select {
	case err := <-serverErr:
		cancel()
		<-loopErr
		return fmt.Errorf("control server: %w", err)
	case err := <-loopErr:
		if errors.Is(err, context.Canceled) {
			stats := a.loop.Stats()
			slog.Info("Render loop stopped", "frames", stats.Frames, "overruns", stats.Overruns, "max_render", stats.MaxRender)
			return nil
		}
		return err
	}
}

// reload applies what changed in the config file to the running session.
func (a *app) reload(conf *config.Config) {
	if err := conf.ApplyChanges(a.session, a.applied); err != nil {
		slog.Error("Failed to apply config change", "error", err)
	}
	a.applied = conf
	if sections := conf.RestartRequired(a.conf); len(sections) > 0 {
		slog.Warn("Config changes need a restart to take effect", "sections", sections)
	}
}

func (a *app) reportFaults(ctx context.Context) {
	faults := a.out.Faults()
	for {
		select {
		case <-ctx.Done():
			return
		case <-faults.Channel():
			fault, ok := faults.Consume()
			if !ok {
				continue
			}
			if fault.Degraded {
				slog.Error("LED output lost, rendering continues without it", "output", fault.Name, "error", fault.Err)
			} else {
				slog.Info("LED output is back", "output", fault.Name)
			}
		}
	}
}
