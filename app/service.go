package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	bmsapi "github.com/kilianp07/bms12v/api/bms"
	"github.com/kilianp07/bms12v/config"
	"github.com/kilianp07/bms12v/core/advisory"
	"github.com/kilianp07/bms12v/core/events"
	corelog "github.com/kilianp07/bms12v/core/logger"
	coremetrics "github.com/kilianp07/bms12v/core/metrics"
	"github.com/kilianp07/bms12v/core/model"
	coremon "github.com/kilianp07/bms12v/core/monitoring"
	"github.com/kilianp07/bms12v/core/session"
	infraadv "github.com/kilianp07/bms12v/infra/advisory"
	"github.com/kilianp07/bms12v/infra/logger"
	"github.com/kilianp07/bms12v/infra/metrics"
	"github.com/kilianp07/bms12v/infra/monitoring"
	"github.com/kilianp07/bms12v/infra/mqtt"
	"github.com/kilianp07/bms12v/internal/eventbus"
)

// Service runs one BMS session on a fixed tick and exposes it over HTTP,
// MQTT and the metrics sinks.
type Service struct {
	cfg      *config.Config
	sess     *session.Session
	bus      *eventbus.Bus[events.Event]
	sink     coremetrics.MetricsSink
	advisor  advisory.Advisor
	bridge   *mqtt.Bridge
	api      http.Handler
	log      logger.Logger
	interval time.Duration
	lastMode model.BMSMode
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		logg.Errorf("sentry init: %v", err)
	} else {
		coremon.Init(mon)
	}

	opts, err := cfg.Session.Options(cfg.Engine, cfg.Physics)
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	sess, err := session.New(opts)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}

	svc := &Service{
		cfg:      cfg,
		sess:     sess,
		bus:      eventbus.New[events.Event](),
		sink:     sink,
		advisor:  infraadv.New(cfg.Advisory),
		log:      logg,
		interval: cfg.Session.TickInterval(),
	}
	if cfg.API.On() {
		svc.api = bmsapi.NewRouter(bmsapi.NewHandler(sess, svc.advisor, svc.bus), cfg.API.CORSOrigins)
	}
	if cfg.MQTT.Enabled {
		bridge, err := mqtt.NewBridge(cfg.MQTT, sess)
		if err != nil {
			_ = coremetrics.CloseSink(sink)
			return nil, fmt.Errorf("mqtt bridge: %w", err)
		}
		bridge.OnApplied(func(changes []session.Change) {
			svc.publishInputs("mqtt", changes)
		})
		svc.bridge = bridge
	}
	return svc, nil
}

func (s *Service) Session() *session.Session { return s.sess }

func (s *Service) Bus() *eventbus.Bus[events.Event] { return s.bus }

func (s *Service) Advisor() advisory.Advisor { return s.advisor }

// Handler returns the API handler, or nil when the API is disabled.
func (s *Service) Handler() http.Handler { return s.api }

func (s *Service) publishInputs(source string, changes []session.Change) {
	for _, ev := range events.InputEvents(s.sess.ID(), source, changes, time.Now()) {
		s.bus.Publish(ev)
	}
}

// Step runs one tick, publishes it on the bus and logs the outcome.
func (s *Service) Step() session.TickResult {
	res := s.sess.Tick()
	s.bus.Publish(events.TickEvent{SessionID: s.sess.ID(), Result: res})

	s.log.Debugw("tick", map[string]any{
		"seq":       res.Seq,
		"bms_mode":  res.Decision.Mode,
		"contactor": res.Decision.Contactor,
		"soc":       res.Telemetry.SOC,
		"latched":   res.Latched,
	})
	if res.Decision.Mode != s.lastMode {
		if s.lastMode != "" {
			s.log.Infof("BMS mode %s -> %s", s.lastMode, res.Decision.Mode)
		}
		s.lastMode = res.Decision.Mode
	}
	if res.Appended {
		corelog.Logf(s.log, severityLevel(res.LogHead.Severity), "%s", res.LogHead.Text)
	}
	return res
}

func severityLevel(sev model.Severity) corelog.Level {
	switch sev {
	case model.SeverityFault:
		return corelog.LevelError
	case model.SeverityWarn:
		return corelog.LevelWarn
	default:
		return corelog.LevelInfo
	}
}

func (s *Service) runTicks(ctx context.Context) (err error) {
	defer coremon.RecoverError(&err)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Step()
		}
	}
}

// Run starts the tick loop and the enabled servers. It blocks until ctx is
// cancelled or one of them fails. The session keeps its state afterwards.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	collected := metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("collector"))

	g.Go(func() error { return s.runTicks(ctx) })
	if s.api != nil {
		g.Go(func() error { return bmsapi.Serve(ctx, s.cfg.API.Address, s.api) })
	}
	if addr := s.cfg.Metrics.PrometheusAddress; addr != "" {
		g.Go(func() error { return metrics.StartPromServer(ctx, addr, nil) })
	}
	if s.bridge != nil {
		g.Go(func() error { return s.bridge.Run(ctx, s.bus) })
	}
	s.log.Infof("session %s ticking every %s", s.sess.ID(), s.interval)

	err := g.Wait()
	<-collected
	return err
}

// Close releases the bus, the sinks and the MQTT connection.
func (s *Service) Close() error {
	if s.bridge != nil {
		s.bridge.Close()
	}
	s.bus.Close()
	err := coremetrics.CloseSink(s.sink)
	coremon.Flush(2 * time.Second)
	if err != nil {
		return fmt.Errorf("close sinks: %w", err)
	}
	return nil
}
