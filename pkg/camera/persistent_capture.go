package camera

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/T3-Labs/edge-capture/pkg/buffer"
	"github.com/T3-Labs/edge-capture/pkg/framequeue"
	"github.com/T3-Labs/edge-capture/pkg/logger"
	"github.com/T3-Labs/edge-capture/pkg/metrics"
)

const (
	readChunkSize   = 32 * 1024
	accInitialCap   = 512 * 1024
	frameQueueDepth = 50
)

var (
	jpegSOI = []byte{0xff, 0xd8}
	jpegEOI = []byte{0xff, 0xd9}
)

// PersistentCapture mantém um processo FFmpeg de longa duração lendo o
// stream MJPEG da câmera. Implementa Session.
type PersistentCapture struct {
	cameraID string
	rtspURL  string
	quality  int
	fps      int

	mu         sync.RWMutex
	cmd        *exec.Cmd
	stdout     io.ReadCloser
	stderr     io.ReadCloser
	running    bool
	restarting bool // Flag para evitar restarts simultâneos

	ctx    context.Context
	cancel context.CancelFunc

	frames      *framequeue.Queue
	errorCount  int64
	lastRestart time.Time

	readCtx    context.Context    // Context para a goroutine readFrames
	readCancel context.CancelFunc // Cancel para a goroutine readFrames
}

func NewPersistentCapture(ctx context.Context, cameraID, rtspURL string, quality int, fps int) *PersistentCapture {
	ctx, cancel := context.WithCancel(ctx)

	return &PersistentCapture{
		cameraID:    cameraID,
		rtspURL:     rtspURL,
		quality:     quality,
		fps:         fps,
		ctx:         ctx,
		cancel:      cancel,
		frames:      framequeue.NewQueue(frameQueueDepth),
		lastRestart: time.Now(),
	}
}

func (pc *PersistentCapture) Start() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if pc.running {
		return fmt.Errorf("captura já está rodando")
	}

	err := pc.startFFmpeg()
	if err != nil {
		return err
	}

	// Cria context específico para readFrames
	pc.readCtx, pc.readCancel = context.WithCancel(pc.ctx)

	go pc.readFrames()
	go pc.monitorHealth()

	pc.running = true
	logger.Log.Infow("Captura persistente iniciada",
		"camera_id", pc.cameraID,
		"quality", pc.quality)

	return nil
}

func (pc *PersistentCapture) startFFmpeg() error {
	pc.cmd = exec.CommandContext(
		pc.ctx,
		"ffmpeg",
		"-rtsp_transport", "tcp",
		"-i", pc.rtspURL,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", fmt.Sprintf("%d", pc.quality),
		"-r", fmt.Sprintf("%d", pc.fps),
		"-",
	)

	var err error
	pc.stdout, err = pc.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("erro ao criar stdout pipe: %w", err)
	}

	pc.stderr, err = pc.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("erro ao criar stderr pipe: %w", err)
	}

	err = pc.cmd.Start()
	if err != nil {
		return fmt.Errorf("erro ao iniciar FFmpeg: %w", err)
	}

	go pc.logErrors()

	return nil
}

// readFrames acumula o stream MJPEG num buffer.Buffer. Cada leitura escreve
// direto no storage do acumulador via AppendDataWith, sem cópia
// intermediária; os frames completos são recortados pelo marcador EOI.
func (pc *PersistentCapture) readFrames() {
	reader := bufio.NewReaderSize(pc.stdout, readChunkSize)
	acc := buffer.NewWithCapacity(0, accInitialCap)

	for {
		select {
		case <-pc.readCtx.Done():
			// Context cancelado, sair silenciosamente
			return
		default:
		}

		// O marcador EOI pode ficar dividido entre duas leituras
		scanFrom := acc.Size() - 1
		if scanFrom < 0 {
			scanFrom = 0
		}

		var readErr error
		n := acc.AppendDataWith(readChunkSize, func(view []byte) int {
			m, err := reader.Read(view)
			if err != nil {
				readErr = err
			}
			return m
		})

		if readErr != nil {
			// Verifica se o context foi cancelado antes de reportar erro
			select {
			case <-pc.readCtx.Done():
				return
			default:
			}

			if readErr == io.EOF {
				pc.handleError("EOF no stream FFmpeg")
				return
			}
			pc.handleError(fmt.Sprintf("erro ao ler stream: %v", readErr))
			return
		}

		if n == 0 {
			continue
		}

		pc.extractFrames(&acc, scanFrom)
	}
}

// extractJPEGFrames recorta do acumulador todos os frames JPEG completos
// (terminados em EOI) e entrega cada um via emit, com posse do buffer
// transferida ao callback. Bytes sem SOI no início são descartados junto
// com o frame recortado.
func extractJPEGFrames(acc *buffer.Buffer, scanFrom int, emit func(frame *buffer.Buffer)) {
	for {
		data := acc.Data()
		i := bytes.Index(data[scanFrom:], jpegEOI)
		if i < 0 {
			return
		}
		end := scanFrom + i + len(jpegEOI)

		if bytes.HasPrefix(data, jpegSOI) {
			out := getFrameBuffer()
			out.SetData(data[:end])
			emit(out)
		}

		// Bytes restantes deslizam para o início do mesmo storage
		acc.SetData(data[end:])
		scanFrom = 0
	}
}

// recycleFramePayload devolve ao pool o storage de um payload descartado
// pela fila.
func recycleFramePayload(p *buffer.Buffer) {
	reclaimed := new(buffer.Buffer)
	reclaimed.MoveFrom(p)
	putFrameBuffer(reclaimed)
}

func (pc *PersistentCapture) extractFrames(acc *buffer.Buffer, scanFrom int) {
	extractJPEGFrames(acc, scanFrom, func(frame *buffer.Buffer) {
		err := pc.frames.Push(framequeue.Frame{
			CameraID:  pc.cameraID,
			Payload:   frame.Move(),
			Timestamp: time.Now(),
			Release:   recycleFramePayload,
		})
		if err != nil {
			logger.Log.Warnw("Fila de frames cheia, frame antigo descartado",
				"camera_id", pc.cameraID)
		}
	})
}

func (pc *PersistentCapture) logErrors() {
	scanner := bufio.NewScanner(pc.stderr)
	for scanner.Scan() {
		line := scanner.Text()
		logger.Log.Debugw("FFmpeg stderr",
			"camera_id", pc.cameraID,
			"message", line)
	}
}

func (pc *PersistentCapture) monitorHealth() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	lastFrameTime := time.Now()

	for {
		select {
		case <-pc.ctx.Done():
			return

		case <-ticker.C:
			metrics.FrameQueueSize.WithLabelValues(pc.cameraID).Set(float64(pc.frames.Size()))

			if pc.frames.Size() > 0 {
				lastFrameTime = time.Now()
			}

			if time.Since(lastFrameTime) > 30*time.Second {
				logger.Log.Warnw("Nenhum frame recebido há 30s, reiniciando captura",
					"camera_id", pc.cameraID)
				pc.Restart()
				lastFrameTime = time.Now()
			}
		}
	}
}

func (pc *PersistentCapture) handleError(msg string) {
	logger.Log.Errorw("Erro na captura persistente",
		"camera_id", pc.cameraID,
		"error", msg)

	pc.errorCount++

	if pc.errorCount > 5 && time.Since(pc.lastRestart) < time.Minute {
		logger.Log.Errorw("Muitos erros em pouco tempo, aguardando antes de reiniciar",
			"camera_id", pc.cameraID,
			"error_count", pc.errorCount)
		time.Sleep(10 * time.Second)
	}

	pc.Restart()
}

func (pc *PersistentCapture) Restart() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	// Evita restarts simultâneos
	if pc.restarting {
		logger.Log.Debugw("Restart já em andamento, ignorando",
			"camera_id", pc.cameraID)
		return nil
	}

	pc.restarting = true
	defer func() { pc.restarting = false }()

	// Cancela a goroutine readFrames atual
	if pc.readCancel != nil {
		pc.readCancel()
	}

	if pc.cmd != nil && pc.cmd.Process != nil {
		_ = pc.cmd.Process.Kill()
		_ = pc.cmd.Wait()
	}

	if pc.stdout != nil {
		_ = pc.stdout.Close()
	}
	if pc.stderr != nil {
		_ = pc.stderr.Close()
	}

	// Aguarda um pouco antes de reiniciar
	time.Sleep(time.Second)

	err := pc.startFFmpeg()
	if err != nil {
		logger.Log.Errorw("Erro ao reiniciar FFmpeg",
			"camera_id", pc.cameraID,
			"error", err)
		return err
	}

	// Novo context para a nova goroutine readFrames
	pc.readCtx, pc.readCancel = context.WithCancel(pc.ctx)

	pc.lastRestart = time.Now()
	pc.errorCount = 0

	go pc.readFrames()

	logger.Log.Infow("Captura reiniciada",
		"camera_id", pc.cameraID)

	return nil
}

// NextFrame retorna o próximo frame disponível sem bloquear. A posse do
// payload passa ao chamador.
func (pc *PersistentCapture) NextFrame() (framequeue.Frame, bool) {
	return pc.frames.Pop()
}

// NextFrameBlocking aguarda o próximo frame ou o cancelamento do context.
func (pc *PersistentCapture) NextFrameBlocking(ctx context.Context) (framequeue.Frame, bool) {
	return pc.frames.PopBlocking(ctx)
}

// QueueStats expõe as estatísticas da fila interna de frames.
func (pc *PersistentCapture) QueueStats() framequeue.QueueStats {
	return pc.frames.Stats()
}

func (pc *PersistentCapture) Stop() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if !pc.running {
		return
	}

	pc.cancel()

	if pc.readCancel != nil {
		pc.readCancel()
	}

	if pc.cmd != nil && pc.cmd.Process != nil {
		_ = pc.cmd.Process.Kill()
		_ = pc.cmd.Wait()
	}

	if pc.stdout != nil {
		_ = pc.stdout.Close()
	}
	if pc.stderr != nil {
		_ = pc.stderr.Close()
	}

	pc.frames.Close()
	pc.running = false

	logger.Log.Infow("Captura persistente parada",
		"camera_id", pc.cameraID)
}

func (pc *PersistentCapture) IsRunning() bool {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.running
}
