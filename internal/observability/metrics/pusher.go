package metrics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	obstracing "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/tracing"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prometheus/prompb"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
)

const (
	exporterPrometheusRemoteWrite = "prometheus_remote_write"
	exporterPrometheusPushgateway = "prometheus_pushgateway"
	defaultPushTimeout            = 5 * time.Second
)

// Pusher ships a registry snapshot at the end of a batch job.
type Pusher interface {
	Push(ctx context.Context, registry *prometheus.Registry) error
}

// NewPusher builds a pusher from config. Misconfiguration is logged and yields nil.
func NewPusher(cfg config.Config, logger *zap.Logger) Pusher {
	if logger == nil {
		logger = zap.NewNop()
	}

	exporter := strings.ToLower(strings.TrimSpace(cfg.MetricsPush.Exporter))
	endpoint := strings.TrimSpace(cfg.MetricsPush.Endpoint)
	if exporter == "" {
		return nil
	}
	if endpoint == "" {
		logger.Warn("metrics push disabled", zap.Error(errors.New("METRICS_PUSH_ENDPOINT is required")))
		return nil
	}

	switch exporter {
	case exporterPrometheusRemoteWrite:
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			logger.Warn("metrics push disabled", zap.Error(fmt.Errorf("invalid METRICS_PUSH_ENDPOINT: %w", err)))
			return nil
		}
		return NewRemoteWritePusher(endpoint, cfg.MetricsPush.AuthToken)
	case exporterPrometheusPushgateway:
		return NewPushgatewayPusher(endpoint, cfg.AppName+"-importer", map[string]string{
			"environment": strings.TrimSpace(cfg.Environment),
		})
	default:
		logger.Warn("metrics push disabled", zap.String("exporter", exporter))
		return nil
	}
}

// RemoteWritePusher sends counters and gauges to a Prometheus remote_write endpoint.
type RemoteWritePusher struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
}

func NewRemoteWritePusher(endpoint, authToken string) *RemoteWritePusher {
	return &RemoteWritePusher{
		endpoint:  endpoint,
		authToken: strings.TrimSpace(authToken),
		httpClient: obstracing.WrapHTTPClient(&http.Client{
			Timeout: defaultPushTimeout,
		}),
	}
}

func (p *RemoteWritePusher) Push(ctx context.Context, registry *prometheus.Registry) error {
	if p == nil || registry == nil {
		return nil
	}

	families, err := registry.Gather()
	if err != nil {
		return err
	}
	series := buildRemoteWriteSeries(families, time.Now().UnixMilli())
	if len(series) == 0 {
		return nil
	}

	payload, err := proto.Marshal(protoadapt.MessageV2Of(&prompb.WriteRequest{Timeseries: series}))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(snappy.Encode(nil, payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("Content-Encoding", "snappy")
	req.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	if p.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("remote write returned %s", resp.Status)
	}
	return nil
}

// PushgatewayPusher sends a registry to a Prometheus Pushgateway.
type PushgatewayPusher struct {
	endpoint string
	job      string
	grouping map[string]string
}

func NewPushgatewayPusher(endpoint, job string, grouping map[string]string) *PushgatewayPusher {
	return &PushgatewayPusher{
		endpoint: endpoint,
		job:      strings.TrimSpace(job),
		grouping: grouping,
	}
}

func (p *PushgatewayPusher) Push(ctx context.Context, registry *prometheus.Registry) error {
	if p == nil || registry == nil {
		return nil
	}
	if p.job == "" {
		return errors.New("pushgateway job is required")
	}

	pusher := push.New(p.endpoint, p.job).Gatherer(registry)
	for key, value := range p.grouping {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		pusher = pusher.Grouping(key, value)
	}
	return pusher.PushContext(ctx)
}

func buildRemoteWriteSeries(families []*dto.MetricFamily, timestampMs int64) []prompb.TimeSeries {
	series := make([]prompb.TimeSeries, 0, len(families))
	for _, family := range families {
		for _, m := range family.GetMetric() {
			var value float64
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				if m.GetCounter() == nil {
					continue
				}
				value = m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				if m.GetGauge() == nil {
					continue
				}
				value = m.GetGauge().GetValue()
			default:
				continue
			}

			labels := make([]prompb.Label, 0, len(m.GetLabel())+1)
			labels = append(labels, prompb.Label{Name: "__name__", Value: family.GetName()})
			for _, label := range m.GetLabel() {
				labels = append(labels, prompb.Label{Name: label.GetName(), Value: label.GetValue()})
			}
			sort.Slice(labels, func(i, j int) bool {
				return labels[i].Name < labels[j].Name
			})

			series = append(series, prompb.TimeSeries{
				Labels:  labels,
				Samples: []prompb.Sample{{Value: value, Timestamp: timestampMs}},
			})
		}
	}
	return series
}
