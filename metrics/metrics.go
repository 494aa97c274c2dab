// Package metrics exposes engine activity as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is a Prometheus-backed set of collectors for broker-level
// activity: connection lifecycle, packet throughput, and QoS completion
// latency. A Recorder should be registered with a single prometheus.Registerer
// and shared across every connection the process serves.
type Recorder struct {
	ActiveConnections prometheus.Gauge
	PacketsReceived   *prometheus.CounterVec
	PacketsSent       *prometheus.CounterVec
	BytesReceived     prometheus.Counter
	BytesSent         prometheus.Counter
	QosCompleteTime   *prometheus.HistogramVec
	RetainedMessages  prometheus.Gauge
	Subscriptions     prometheus.Gauge
}

// NewRecorder builds a Recorder with unregistered collectors under the
// given namespace (e.g. "mqttengine").
func NewRecorder(namespace string) *Recorder {
	return &Recorder{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of currently connected clients.",
		}),
		PacketsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      "Total control packets received, by packet type.",
		}, []string{"type"}),
		PacketsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_sent_total",
			Help:      "Total control packets sent, by packet type.",
		}, []string{"type"}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Total wire bytes received.",
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Total wire bytes sent.",
		}),
		QosCompleteTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "qos_complete_seconds",
			Help:      "Time from a QoS 1/2 publish to its final acknowledgment.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"qos"}),
		RetainedMessages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "retained_messages",
			Help:      "Number of topics currently holding a retained message.",
		}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions",
			Help:      "Number of active topic subscriptions.",
		}),
	}
}

// Register registers every collector with reg.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.ActiveConnections,
		r.PacketsReceived,
		r.PacketsSent,
		r.BytesReceived,
		r.BytesSent,
		r.QosCompleteTime,
		r.RetainedMessages,
		r.Subscriptions,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ClientConnected increments the active connection gauge.
func (r *Recorder) ClientConnected() {
	r.ActiveConnections.Inc()
}

// ClientDisconnected decrements the active connection gauge.
func (r *Recorder) ClientDisconnected() {
	r.ActiveConnections.Dec()
}

// PacketReceived records an inbound packet of the given type name and size.
func (r *Recorder) PacketReceived(packetType string, bytes int) {
	r.PacketsReceived.WithLabelValues(packetType).Inc()
	r.BytesReceived.Add(float64(bytes))
}

// PacketSent records an outbound packet of the given type name and size.
func (r *Recorder) PacketSent(packetType string, bytes int) {
	r.PacketsSent.WithLabelValues(packetType).Inc()
	r.BytesSent.Add(float64(bytes))
}

// ObserveQosComplete records how long a QoS 1 or 2 exchange took to
// acknowledge, from publish to final ack.
func (r *Recorder) ObserveQosComplete(qos byte, d time.Duration) {
	r.QosCompleteTime.WithLabelValues(qosLabel(qos)).Observe(d.Seconds())
}

func qosLabel(qos byte) string {
	switch qos {
	case 0:
		return "0"
	case 1:
		return "1"
	case 2:
		return "2"
	default:
		return "unknown"
	}
}

// SetRetainedMessages sets the current retained-message count.
func (r *Recorder) SetRetainedMessages(count int64) {
	r.RetainedMessages.Set(float64(count))
}

// SetSubscriptions sets the current subscription count.
func (r *Recorder) SetSubscriptions(count int) {
	r.Subscriptions.Set(float64(count))
}
