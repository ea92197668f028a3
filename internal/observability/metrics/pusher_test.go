package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "osb_test_total"}, []string{"stage"})
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "osb_test_gauge"})
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "osb_test_seconds"})
	registry.MustRegister(counter, gauge, histogram)
	counter.WithLabelValues("buildings").Add(3)
	gauge.Set(7)
	histogram.Observe(1)
	return registry
}

func TestBuildRemoteWriteSeriesSkipsHistograms(t *testing.T) {
	families, err := testRegistry(t).Gather()
	require.NoError(t, err)

	series := buildRemoteWriteSeries(families, 42)
	require.Len(t, series, 2)

	byName := map[string]prompb.TimeSeries{}
	for _, s := range series {
		for _, l := range s.Labels {
			if l.Name == "__name__" {
				byName[l.Value] = s
			}
		}
	}
	require.Contains(t, byName, "osb_test_total")
	require.Contains(t, byName, "osb_test_gauge")
	require.Equal(t, 3.0, byName["osb_test_total"].Samples[0].Value)
	require.Equal(t, int64(42), byName["osb_test_total"].Samples[0].Timestamp)
	require.Equal(t, "__name__", byName["osb_test_total"].Labels[0].Name)
	require.Equal(t, "stage", byName["osb_test_total"].Labels[1].Name)
}

func TestRemoteWritePusherSendsSnappyProtobuf(t *testing.T) {
	var received prompb.WriteRequest
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		decoded, err := snappy.Decode(nil, body)
		require.NoError(t, err)
		require.NoError(t, received.Unmarshal(decoded))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	pusher := NewRemoteWritePusher(srv.URL, "secret")
	require.NoError(t, pusher.Push(context.Background(), testRegistry(t)))
	require.Equal(t, "Bearer secret", authHeader)
	require.Len(t, received.Timeseries, 2)
}

func TestRemoteWritePusherReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewRemoteWritePusher(srv.URL, "").Push(context.Background(), testRegistry(t))
	require.Error(t, err)
}

func TestNewPusherSelectsExporter(t *testing.T) {
	log := zap.NewNop()

	require.Nil(t, NewPusher(config.Config{}, log))
	require.Nil(t, NewPusher(config.Config{MetricsPush: config.MetricsPushConfig{Exporter: "prometheus_pushgateway"}}, log))
	require.Nil(t, NewPusher(config.Config{MetricsPush: config.MetricsPushConfig{Exporter: "statsd", Endpoint: "localhost:8125"}}, log))

	rw := NewPusher(config.Config{MetricsPush: config.MetricsPushConfig{
		Exporter: "prometheus_remote_write",
		Endpoint: "http://prom:9090/api/v1/write",
	}}, log)
	require.IsType(t, &RemoteWritePusher{}, rw)

	pg := NewPusher(config.Config{AppName: "osb", MetricsPush: config.MetricsPushConfig{
		Exporter: "prometheus_pushgateway",
		Endpoint: "http://pushgateway:9091",
	}}, log)
	require.IsType(t, &PushgatewayPusher{}, pg)
	require.Equal(t, "osb-importer", pg.(*PushgatewayPusher).job)
}
