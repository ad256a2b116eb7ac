package camera

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/T3-Labs/edge-capture/internal/metadata"
	"github.com/T3-Labs/edge-capture/internal/storage"
	"github.com/T3-Labs/edge-capture/pkg/buffer"
	"github.com/T3-Labs/edge-capture/pkg/circuit"
	"github.com/T3-Labs/edge-capture/pkg/logger"
	"github.com/T3-Labs/edge-capture/pkg/metrics"
	"github.com/T3-Labs/edge-capture/pkg/mq"
	"github.com/T3-Labs/edge-capture/pkg/util"
	"github.com/T3-Labs/edge-capture/pkg/worker"
)

type Config struct {
	ID  string
	URL string
}

type Capture struct {
	ctx               context.Context
	config            Config
	interval          time.Duration
	compressor        *util.Compressor
	publisher         mq.Publisher
	redisStore        *storage.RedisStore
	metaPublisher     *metadata.Publisher
	workerPool        *worker.Pool
	dispatcher        Dispatcher
	orientation       OrientationNotifier
	circuitBreaker    *circuit.Breaker
	persistentCapture *PersistentCapture
	usePersistent     bool
	monitor           *Monitor
}

func NewCapture(
	ctx context.Context,
	config Config,
	interval time.Duration,
	compressor *util.Compressor,
	publisher mq.Publisher,
	redisStore *storage.RedisStore,
	metaPublisher *metadata.Publisher,
	workerPool *worker.Pool,
	circuitBreaker *circuit.Breaker,
	usePersistent bool,
) *Capture {
	capture := &Capture{
		ctx:            ctx,
		config:         config,
		interval:       interval,
		compressor:     compressor,
		publisher:      publisher,
		redisStore:     redisStore,
		metaPublisher:  metaPublisher,
		workerPool:     workerPool,
		dispatcher:     NewSerialDispatcher(32),
		orientation:    StaticOrientation(OrientationLandscape),
		circuitBreaker: circuitBreaker,
		usePersistent:  usePersistent,
	}

	if usePersistent {
		capture.persistentCapture = NewPersistentCapture(ctx, config.ID, config.URL, 5, 10)
	}

	return capture
}

// SetOrientationNotifier troca a fonte de orientação (por padrão fixa em
// landscape). Deve ser chamado antes de Start.
func (c *Capture) SetOrientationNotifier(n OrientationNotifier) {
	if n != nil {
		c.orientation = n
	}
}

// SetHealthMonitor liga a captura ao monitor de saúde. Deve ser chamado
// antes de Start.
func (c *Capture) SetHealthMonitor(m *Monitor) {
	c.monitor = m
}

func (c *Capture) recordSuccess() {
	if c.monitor != nil {
		c.monitor.RecordSuccess(c.config.ID)
	}
}

func (c *Capture) recordFailure(err error) {
	if c.monitor != nil {
		c.monitor.RecordFailure(c.config.ID, err)
	}
}

func (c *Capture) Start() {
	if c.usePersistent && c.persistentCapture != nil {
		err := c.persistentCapture.Start()
		if err != nil {
			logger.Log.Errorw("Erro ao iniciar captura persistente, usando modo clássico",
				"camera_id", c.config.ID,
				"error", err)
			c.usePersistent = false
		} else {
			go c.persistentCaptureLoop()
			metrics.CameraConnected.WithLabelValues(c.config.ID).Set(1)
			return
		}
	}

	go c.classicCaptureLoop()
	metrics.CameraConnected.WithLabelValues(c.config.ID).Set(1)
}

// persistentCaptureLoop drena a fila da sessão persistente. A submissão dos
// jobs é marshalada pelo dispatcher para manter a ordem dos frames.
func (c *Capture) persistentCaptureLoop() {
	logger.Log.Infow("Iniciando loop de captura persistente",
		"camera_id", c.config.ID)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			logger.Log.Infow("Parando captura persistente",
				"camera_id", c.config.ID)
			c.persistentCapture.Stop()
			c.dispatcher.Close()
			metrics.CameraConnected.WithLabelValues(c.config.ID).Set(0)
			return

		case <-ticker.C:
			frame, ok := c.persistentCapture.NextFrame()
			if !ok {
				metrics.FramesDropped.WithLabelValues(c.config.ID, "no_frame_available").Inc()
				continue
			}
			c.recordSuccess()

			// Posse do payload passa ao job
			payload := new(buffer.Buffer)
			payload.MoveFrom(&frame.Payload)

			job := &FrameProcessJob{
				cameraID:      c.config.ID,
				payload:       payload,
				timestamp:     frame.Timestamp,
				orientation:   c.orientation.Current(),
				compressor:    c.compressor,
				publisher:     c.publisher,
				redisStore:    c.redisStore,
				metaPublisher: c.metaPublisher,
			}

			ok = c.dispatcher.Dispatch(func() {
				if err := c.workerPool.Submit(job); err != nil {
					metrics.FramesDropped.WithLabelValues(c.config.ID, "worker_pool_full").Inc()
					logger.Log.Warnw("Worker pool cheio, frame descartado",
						"camera_id", c.config.ID)
					putFrameBuffer(job.payload)
				}
			})
			if !ok {
				metrics.FramesDropped.WithLabelValues(c.config.ID, "dispatcher_full").Inc()
				putFrameBuffer(payload)
			}
		}
	}
}

func (c *Capture) classicCaptureLoop() {
	logger.Log.Infow("Iniciando loop de captura clássica",
		"camera_id", c.config.ID)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			logger.Log.Infow("Parando captura clássica",
				"camera_id", c.config.ID)
			metrics.CameraConnected.WithLabelValues(c.config.ID).Set(0)
			return

		case <-ticker.C:
			c.captureAndPublish()
		}
	}
}

func (c *Capture) captureAndPublish() {
	start := time.Now()

	err := c.circuitBreaker.Call(func() error {
		return c.doCapture()
	})

	if err != nil {
		logger.Log.Errorw("Erro na captura com circuit breaker",
			"camera_id", c.config.ID,
			"error", err)
		metrics.FramesDropped.WithLabelValues(c.config.ID, "circuit_breaker_open").Inc()
		c.recordFailure(err)
		return
	}

	c.recordSuccess()
	metrics.CaptureLatency.WithLabelValues(c.config.ID).Observe(time.Since(start).Seconds())
}

// bufWriter adapta um buffer.Buffer ao io.Writer que o exec.Cmd espera.
// Cada Write entra pelo caminho pointer-based de AppendData.
type bufWriter struct {
	buf *buffer.Buffer
}

func (w bufWriter) Write(p []byte) (int, error) {
	w.buf.AppendData(p)
	return len(p), nil
}

func (c *Capture) doCapture() error {
	cmd := exec.CommandContext(
		c.ctx,
		"ffmpeg",
		"-rtsp_transport", "tcp",
		"-i", c.config.URL,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "5",
		"-",
	)

	// O sample vai direto para um buffer do pool, um SetData lógico por
	// captura
	out := getFrameBuffer()
	var stderr bytes.Buffer
	cmd.Stdout = bufWriter{buf: out}
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		putFrameBuffer(out)
		logger.Log.Errorw("Erro ao capturar frame",
			"camera_id", c.config.ID,
			"error", err,
			"stderr", stderr.String())
		return err
	}

	if out.Size() == 0 {
		putFrameBuffer(out)
		logger.Log.Warnw("Frame vazio capturado",
			"camera_id", c.config.ID)
		return errors.New("frame vazio")
	}

	metrics.FrameSizeBytes.WithLabelValues(c.config.ID).Observe(float64(out.Size()))

	logger.Log.Debugw("Frame capturado",
		"camera_id", c.config.ID,
		"size_bytes", out.Size())

	job := &FrameProcessJob{
		cameraID:      c.config.ID,
		payload:       out,
		timestamp:     time.Now(),
		orientation:   c.orientation.Current(),
		compressor:    c.compressor,
		publisher:     c.publisher,
		redisStore:    c.redisStore,
		metaPublisher: c.metaPublisher,
	}

	err = c.workerPool.Submit(job)
	if err != nil {
		metrics.FramesDropped.WithLabelValues(c.config.ID, "worker_pool_full").Inc()
		logger.Log.Warnw("Worker pool cheio, processando sincronamente",
			"camera_id", c.config.ID)
		return job.Process(c.ctx)
	}

	return nil
}

// FrameProcessJob publica e retém um frame. O job tem posse exclusiva do
// payload; ao terminar, o buffer volta ao pool.
type FrameProcessJob struct {
	cameraID      string
	payload       *buffer.Buffer
	timestamp     time.Time
	orientation   Orientation
	compressor    *util.Compressor
	publisher     mq.Publisher
	redisStore    *storage.RedisStore
	metaPublisher *metadata.Publisher
}

func (j *FrameProcessJob) GetID() string {
	return j.cameraID + "_" + j.timestamp.Format("20060102150405.000")
}

func (j *FrameProcessJob) Process(ctx context.Context) error {
	defer putFrameBuffer(j.payload)

	start := time.Now()

	// out é o buffer que atravessa publicação, Redis e metadata: o payload
	// cru, ou o scratch com o payload comprimido
	out := j.payload
	if j.compressor != nil {
		scratch := getFrameBuffer()
		defer putFrameBuffer(scratch)
		if err := j.compressor.CompressInto(scratch, j.payload.Data()); err != nil {
			logger.Log.Errorw("Erro ao comprimir frame",
				"camera_id", j.cameraID,
				"error", err)
			return err
		}
		out = scratch
	}

	err := j.publisher.Publish(ctx, j.cameraID, out)
	if err != nil {
		logger.Log.Errorw("Erro ao publicar frame",
			"camera_id", j.cameraID,
			"error", err)
		return err
	}

	metrics.PublishLatency.WithLabelValues("amqp").Observe(time.Since(start).Seconds())
	metrics.FramesProcessed.WithLabelValues(j.cameraID).Inc()

	if j.redisStore.Enabled() {
		width, height := 1280, 720
		if j.orientation == OrientationPortrait {
			width, height = height, width
		}

		key, err := j.redisStore.SaveFrame(ctx, j.cameraID, j.timestamp, out)
		if err != nil {
			logger.Log.Errorw("Erro ao gravar frame no Redis",
				"camera_id", j.cameraID,
				"error", err)
			metrics.StorageOperations.WithLabelValues("save_frame", "error").Inc()
			return err
		}

		metrics.StorageOperations.WithLabelValues("save_frame", "success").Inc()

		if j.metaPublisher.Enabled() {
			err = j.metaPublisher.PublishFrame(j.cameraID, j.timestamp, key, width, height, out, "jpeg")
			if err != nil {
				logger.Log.Errorw("Erro ao publicar metadata",
					"camera_id", j.cameraID,
					"error", err)
				return err
			}
		}
	}

	return nil
}
