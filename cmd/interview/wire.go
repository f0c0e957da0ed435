package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/interview-engine/internal/config"
	"github.com/danielpatrickdp/interview-engine/internal/logging"
	"github.com/danielpatrickdp/interview-engine/internal/perception"
	"github.com/danielpatrickdp/interview-engine/internal/perception/framedir"
	"github.com/danielpatrickdp/interview-engine/internal/perception/grpcdetect"
	"github.com/danielpatrickdp/interview-engine/internal/questions"
	"github.com/danielpatrickdp/interview-engine/internal/session"
	"github.com/danielpatrickdp/interview-engine/internal/store"
	"github.com/danielpatrickdp/interview-engine/internal/submit"
	"github.com/danielpatrickdp/interview-engine/internal/telemetry"
)

// #region runtime

// runtime holds the collaborators built from config and the cleanup for each.
type runtime struct {
	store    *store.Store
	deps     session.Deps
	exporter *telemetry.Exporter
	closers  []func() error
	log      logrus.FieldLogger
}

// buildRuntime opens the store and wires the configured backends into session deps.
// The caller sets deps.Recognizer.
func buildRuntime(cfg config.Config, log logrus.FieldLogger) (*runtime, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	rt := &runtime{store: st, log: log}
	rt.closers = append(rt.closers, st.Close)
	rt.deps = session.Deps{
		Journal: logging.NewJournal(st.DB()),
		Log:     log,
	}

	if err := rt.wireSubmitter(cfg.Submit); err != nil {
		rt.Close()
		return nil, err
	}
	if err := rt.wirePerception(cfg.Perception); err != nil {
		rt.Close()
		return nil, err
	}
	if cfg.Questions.URL != "" {
		rt.deps.Questions = questions.NewHTTPProvider(questions.Config{
			URL:     cfg.Questions.URL,
			Timeout: cfg.Questions.Timeout,
		})
	}
	if cfg.Metrics.Addr != "" {
		rt.exporter, rt.deps.Metrics = telemetry.NewExporter(cfg.Metrics.Addr)
		go func() {
			if err := rt.exporter.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics exporter stopped")
			}
		}()
	}
	return rt, nil
}

func (rt *runtime) wireSubmitter(cfg config.Submit) error {
	switch cfg.Backend {
	case "sqlite":
		rt.deps.Submitter = submit.NewStore(rt.store)
	case "http":
		rt.deps.Submitter = submit.NewHTTP(cfg.URL)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		rt.closers = append(rt.closers, client.Close)
		rt.deps.Submitter = submit.NewRedis(client, submit.WithTTL(cfg.RedisTTL), submit.WithPrefix(cfg.RedisPrefix))
	default:
		return fmt.Errorf("unknown submit backend %q", cfg.Backend)
	}
	return nil
}

func (rt *runtime) wirePerception(cfg config.Perception) error {
	if cfg.FramesDir != "" {
		src, err := framedir.New(cfg.FramesDir)
		if err != nil {
			return err
		}
		if cfg.MaxFrameWidth > 0 {
			src.MaxWidth = cfg.MaxFrameWidth
		}
		rt.deps.Frames = src
		rt.log.WithField("frames", src.Len()).Info("camera: reading frames from directory")
	}
	if cfg.DetectorAddr != "" {
		client, err := grpcdetect.NewClient(cfg.DetectorAddr)
		if err != nil {
			return fmt.Errorf("connect detector at %s: %w", cfg.DetectorAddr, err)
		}
		rt.closers = append(rt.closers, client.Close)
		rt.deps.Detector = client
	} else if rt.deps.Frames != nil {
		rt.log.Warn("camera: no detector configured, every sample will report no face")
		rt.deps.Detector = perception.NoFaces{}
	}
	return nil
}

// Close releases everything in reverse order of construction.
func (rt *runtime) Close() {
	if rt.exporter != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = rt.exporter.Shutdown(ctx)
		cancel()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.WithError(err).Warn("close failed")
		}
	}
}

// sessionConfig maps file config onto the controller's timing.
func sessionConfig(cfg config.Config) session.Config {
	sc := session.DefaultConfig()
	sc.Tick = cfg.Session.Tick
	sc.ShutdownGrace = cfg.Session.ShutdownGrace
	sc.SubmitTimeout = cfg.Session.SubmitTimeout
	sc.QuestionTimeout = cfg.Session.QuestionTimeout
	sc.Perception = perception.Config{
		PollInterval:     cfg.Perception.PollInterval,
		SampleTimeout:    cfg.Perception.SampleTimeout,
		WatchdogInterval: cfg.Perception.WatchdogInterval,
		StallAfter:       cfg.Perception.StallAfter,
	}
	sc.Speech.RestartDelay = cfg.Speech.RestartDelay
	return sc
}

// #endregion runtime
