package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/T3-Labs/edge-capture/pkg/logger"
	"github.com/T3-Labs/edge-capture/pkg/metrics"
)

// Job é uma unidade de trabalho do pipeline (tipicamente um frame a
// publicar). Process recebe o context do pool e deve liberar os recursos do
// job mesmo em erro.
type Job interface {
	Process(ctx context.Context) error
	GetID() string
}

// Pool processa jobs em paralelo com fila limitada. Submit nunca bloqueia:
// fila cheia é sinal para o produtor descartar o frame, não para segurar a
// captura.
type Pool struct {
	jobs    chan Job
	workers int
	ctx     context.Context
	cancel  context.CancelFunc

	processing     int32
	totalProcessed int64
	totalErrors    int64
}

func NewPool(ctx context.Context, workers int, queueSize int) *Pool {
	ctx, cancel := context.WithCancel(ctx)

	p := &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		go p.worker()
	}
	go p.reportLoop()

	logger.Log.Infow("Worker pool inicializado",
		"workers", workers,
		"queue_size", queueSize)

	return p
}

func (p *Pool) worker() {
	for {
		select {
		case <-p.ctx.Done():
			return

		case job, ok := <-p.jobs:
			if !ok {
				return
			}

			atomic.AddInt32(&p.processing, 1)
			err := job.Process(p.ctx)
			atomic.AddInt32(&p.processing, -1)

			atomic.AddInt64(&p.totalProcessed, 1)
			if err != nil {
				n := atomic.AddInt64(&p.totalErrors, 1)
				if n%100 == 0 {
					logger.Log.Warnw("Worker pool acumulando erros",
						"total_errors", n,
						"last_job", job.GetID(),
						"error", err)
				}
			}
		}
	}
}

// reportLoop exporta as métricas da fila e loga o resumo do período.
func (p *Pool) reportLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return

		case <-ticker.C:
			stats := p.Stats()
			metrics.WorkerPoolQueueSize.WithLabelValues("frames").Set(float64(stats.QueueSize))
			metrics.WorkerPoolProcessing.WithLabelValues("frames").Set(float64(stats.Processing))

			if stats.TotalProcessed > 0 {
				logger.Log.Infow("Worker pool stats",
					"processed", stats.TotalProcessed,
					"errors", stats.TotalErrors,
					"error_rate_percent", stats.ErrorRate(),
					"processing", stats.Processing)
			}
		}
	}
}

// Submit enfileira o job; erro se a fila estiver cheia ou o pool fechado.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("pool fechado")
	default:
		return fmt.Errorf("fila cheia")
	}
}

func (p *Pool) SubmitNonBlocking(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Close para de aceitar jobs e aguarda os em andamento, com timeout de 5s.
func (p *Pool) Close() {
	logger.Log.Info("Fechando worker pool...")
	close(p.jobs)

	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			logger.Log.Warnw("Timeout ao fechar worker pool",
				"jobs_processing", atomic.LoadInt32(&p.processing))
			p.cancel()
			return

		case <-ticker.C:
			if atomic.LoadInt32(&p.processing) == 0 {
				logger.Log.Info("Worker pool finalizado")
				p.cancel()
				return
			}
		}
	}
}

func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:        p.workers,
		QueueSize:      len(p.jobs),
		Capacity:       cap(p.jobs),
		Processing:     int(atomic.LoadInt32(&p.processing)),
		TotalProcessed: atomic.LoadInt64(&p.totalProcessed),
		TotalErrors:    atomic.LoadInt64(&p.totalErrors),
	}
}

type PoolStats struct {
	Workers        int
	QueueSize      int
	Capacity       int
	Processing     int
	TotalProcessed int64
	TotalErrors    int64
}

func (ps PoolStats) ErrorRate() float64 {
	if ps.TotalProcessed == 0 {
		return 0
	}
	return float64(ps.TotalErrors) / float64(ps.TotalProcessed) * 100
}

func (ps PoolStats) String() string {
	return fmt.Sprintf("Workers: %d, Queue: %d/%d, Processing: %d, Total: %d (erros: %d)",
		ps.Workers, ps.QueueSize, ps.Capacity, ps.Processing, ps.TotalProcessed, ps.TotalErrors)
}
