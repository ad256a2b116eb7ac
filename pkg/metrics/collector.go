package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_capture_frames_processed_total",
			Help: "Total de frames processados por câmera",
		},
		[]string{"camera_id"},
	)
	
	FramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_capture_frames_dropped_total",
			Help: "Total de frames descartados por câmera",
		},
		[]string{"camera_id", "reason"},
	)
	
	CaptureLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edge_capture_capture_latency_seconds",
			Help:    "Latência de captura de frames",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"camera_id"},
	)
	
	WorkerPoolQueueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "edge_capture_worker_pool_queue_size",
			Help: "Tamanho atual da fila do worker pool",
		},
		[]string{"pool_name"},
	)
	
	WorkerPoolProcessing = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "edge_capture_worker_pool_processing",
			Help: "Número de jobs em processamento",
		},
		[]string{"pool_name"},
	)
	
	FrameQueueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "edge_capture_frame_queue_size",
			Help: "Tamanho atual da fila de frames",
		},
		[]string{"camera_id"},
	)

	LastSuccessfulCapture = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "edge_capture_last_successful_capture_timestamp",
			Help: "Timestamp unix da última captura bem-sucedida",
		},
		[]string{"camera_id"},
	)

	ActiveCamerasCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "edge_capture_active_cameras",
			Help: "Número de câmeras ativas no momento",
		},
	)
	
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "edge_capture_circuit_breaker_state",
			Help: "Estado do circuit breaker (0=closed, 1=open, 2=half-open)",
		},
		[]string{"breaker_name"},
	)
	
	CameraConnected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "edge_capture_camera_connected",
			Help: "Status de conexão da câmera (0=desconectada, 1=conectada)",
		},
		[]string{"camera_id"},
	)
	
	PublishLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edge_capture_publish_latency_seconds",
			Help:    "Latência de publicação de mensagens",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"publisher_type"},
	)
	
	StorageOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edge_capture_storage_operations_total",
			Help: "Total de operações de armazenamento",
		},
		[]string{"operation", "status"},
	)
	
	FrameSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edge_capture_frame_size_bytes",
			Help:    "Tamanho dos frames em bytes",
			Buckets: []float64{1024, 5120, 10240, 51200, 102400, 512000, 1048576},
		},
		[]string{"camera_id"},
	)
)
