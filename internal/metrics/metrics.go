// Package metrics exposes conversion counters in the Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/libero2lerobot/internal/domain"
)

const namespace = "libero2lerobot"

// Collector counts conversion events. It implements app.EventEmitter.
type Collector struct {
	registry *prometheus.Registry

	files          *prometheus.CounterVec
	episodes       prometheus.Counter
	frames         prometheus.Counter
	videosEncoded  *prometheus.CounterVec
	videosSkipped  *prometheus.CounterVec
	lastEpisodeEnd prometheus.Gauge
}

// New creates a collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Input files processed, by outcome.",
		}, []string{"status"}),
		episodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "episodes_written_total",
			Help:      "Episode tables written.",
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_written_total",
			Help:      "Timestep rows written across all episodes.",
		}),
		videosEncoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "videos_encoded_total",
			Help:      "Episode videos encoded, by stream.",
		}, []string{"stream"}),
		videosSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "videos_skipped_total",
			Help:      "Episode videos skipped for lack of frames, by stream.",
		}, []string{"stream"}),
		lastEpisodeEnd: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "global_episode_end",
			Help:      "Exclusive end of the global episode range of the last completed chunk.",
		}),
	}
	c.registry.MustRegister(c.files, c.episodes, c.frames, c.videosEncoded, c.videosSkipped, c.lastEpisodeEnd)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) OnEpisodeWritten(episode, frames int) {
	c.episodes.Inc()
	c.frames.Add(float64(frames))
}

func (c *Collector) OnVideoEncoded(episode int, stream string) {
	c.videosEncoded.WithLabelValues(stream).Inc()
}

func (c *Collector) OnVideoSkipped(episode int, stream string, err error) {
	c.videosSkipped.WithLabelValues(stream).Inc()
}

func (c *Collector) OnChunkComplete(chunk domain.Chunk) {
	c.files.WithLabelValues("ok").Inc()
	c.lastEpisodeEnd.Set(float64(chunk.GlobalEpisodeEnd))
}

func (c *Collector) OnFileFailed(file string, err error) {
	c.files.WithLabelValues("failed").Inc()
}

// WriteTextfile writes the current values to path in the text exposition
// format, for node_exporter's textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
