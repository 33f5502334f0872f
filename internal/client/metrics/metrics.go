// Package metrics собирает метрики Prometheus для клиента заметок.
package metrics

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Исходы обновления токенов.
const (
	RefreshSuccess = "success"
	RefreshReused  = "reused"
	RefreshFailure = "failure"
)

// StatusNetworkError - значение метки status для запросов без ответа.
const StatusNetworkError = "network_error"

// MetricsCollector описывает сбор метрик клиента.
type MetricsCollector interface {
	RecordRequest(method string, statusCode int, duration time.Duration)
	RecordNetworkError(method string, duration time.Duration)
	RecordRefresh(outcome string)
	RecordRejected(stage string)
}

// Collector реализует MetricsCollector поверх Prometheus.
type Collector struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	refreshes       *prometheus.CounterVec
	rejected        *prometheus.CounterVec
}

// NewCollector создает Collector и регистрирует метрики в реестре.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notesync_client_requests_total",
			Help: "Количество HTTP запросов к сервису заметок",
		}, []string{"method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notesync_client_request_duration_seconds",
			Help:    "Длительность HTTP запросов к сервису заметок (секунды)",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notesync_client_token_refresh_total",
			Help: "Количество обновлений токенов по исходу",
		}, []string{"outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notesync_client_rejected_total",
			Help: "Запросы, отклоненные до отправки",
		}, []string{"stage"}),
	}

	reg.MustRegister(c.requests, c.requestDuration, c.refreshes, c.rejected)

	return c
}

// RecordRequest записывает завершенный запрос.
func (c *Collector) RecordRequest(method string, statusCode int, duration time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordNetworkError записывает запрос, не получивший ответа.
func (c *Collector) RecordNetworkError(method string, duration time.Duration) {
	c.requests.WithLabelValues(method, StatusNetworkError).Inc()
	c.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRefresh записывает исход обновления токенов.
func (c *Collector) RecordRefresh(outcome string) {
	c.refreshes.WithLabelValues(outcome).Inc()
}

// RecordRejected записывает запрос, остановленный стадией цепочки.
func (c *Collector) RecordRejected(stage string) {
	c.rejected.WithLabelValues(stage).Inc()
}

// WriteText выводит собранные метрики в текстовом формате Prometheus.
func WriteText(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Nop - сборщик, который ничего не записывает.
type Nop struct{}

// RecordRequest ничего не делает.
func (Nop) RecordRequest(string, int, time.Duration) {}

// RecordNetworkError ничего не делает.
func (Nop) RecordNetworkError(string, time.Duration) {}

// RecordRefresh ничего не делает.
func (Nop) RecordRefresh(string) {}

// RecordRejected ничего не делает.
func (Nop) RecordRejected(string) {}
