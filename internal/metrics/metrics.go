// Package metrics expone contadores Prometheus para los caminos de fallback,
// las decisiones del gate de requisitos y el ciclo de vida del modelo.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BoundsFallbackTotal cuenta las veces que no hubo bounds del dataset y se usó el vector sin escalar.
	BoundsFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vocational_bounds_fallback_total",
		Help: "Total number of operations that skipped bounds scaling",
	}, []string{"stage"})

	// AxisFallbackTotal cuenta los candidatos vacíos resueltos con el eje por defecto.
	AxisFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vocational_axis_fallback_total",
		Help: "Total number of empty axis candidate sets replaced by the default axis",
	})

	// GateRejectionsTotal cuenta los rechazos del gate por carrera.
	GateRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vocational_gate_rejections_total",
		Help: "Total number of careers rejected by the requirement gate",
	}, []string{"career"})

	// RecommendationsTotal cuenta las recomendaciones emitidas por estrategia.
	RecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vocational_recommendations_total",
		Help: "Total number of recommendation requests served",
	}, []string{"ranker", "outcome"})

	// ModelFallbackTotal cuenta las veces que el modelo no estaba disponible.
	ModelFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vocational_model_fallback_total",
		Help: "Total number of requests served by the fallback ranker",
	})

	// RetrainTotal cuenta los reentrenamientos por resultado.
	RetrainTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vocational_retrain_total",
		Help: "Total number of retrain attempts by result",
	}, []string{"result"})

	// BufferAppendsTotal cuenta las muestras agregadas al buffer.
	BufferAppendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vocational_buffer_appends_total",
		Help: "Total number of samples appended to the training buffer",
	}, []string{"backend"})
)

func RecordBoundsFallback(stage string) {
	BoundsFallbackTotal.WithLabelValues(stage).Inc()
}

func RecordAxisFallback() {
	AxisFallbackTotal.Inc()
}

func RecordGateRejection(career string) {
	GateRejectionsTotal.WithLabelValues(career).Inc()
}

// RecordRecommendation registra una respuesta; outcome es "ok" o "empty".
func RecordRecommendation(ranker, outcome string) {
	RecommendationsTotal.WithLabelValues(ranker, outcome).Inc()
}

func RecordModelFallback() {
	ModelFallbackTotal.Inc()
}

// RecordRetrain registra el resultado: "success", "skipped", "locked" o "failure".
func RecordRetrain(result string) {
	RetrainTotal.WithLabelValues(result).Inc()
}

func RecordBufferAppend(backend string) {
	BufferAppendsTotal.WithLabelValues(backend).Inc()
}
