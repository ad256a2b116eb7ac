package memcontrol

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/T3-Labs/edge-capture/pkg/logger"
	"github.com/T3-Labs/edge-capture/pkg/metrics"
)

type MemoryLevel int

const (
	MemoryNormal MemoryLevel = iota
	MemoryWarning
	MemoryCritical
	MemoryEmergency
)

func (ml MemoryLevel) String() string {
	switch ml {
	case MemoryNormal:
		return "NORMAL"
	case MemoryWarning:
		return "WARNING"
	case MemoryCritical:
		return "CRITICAL"
	case MemoryEmergency:
		return "EMERGENCY"
	default:
		return "UNKNOWN"
	}
}

// Limiares de uso (percentual de MaxMemoryMB) de cada nível.
type ThresholdConfig struct {
	MaxMemoryMB      uint64
	WarningPercent   float64
	CriticalPercent  float64
	EmergencyPercent float64
	GCTriggerPercent float64
	CheckInterval    time.Duration
}

type MemoryStats struct {
	AllocMB      uint64
	SysMB        uint64
	HeapInuseMB  uint64
	NumGC        uint32
	UsagePercent float64
	Level        MemoryLevel
	Timestamp    time.Time
}

// Delays de captura por nível; em emergência a câmera fica pausada.
var throttleDelays = map[MemoryLevel]time.Duration{
	MemoryNormal:    0,
	MemoryWarning:   100 * time.Millisecond,
	MemoryCritical:  500 * time.Millisecond,
	MemoryEmergency: 2 * time.Second,
}

// Controller vigia a pressão de memória do processo. Frames de vídeo
// acumulam rápido quando o broker atrasa; acima dos limiares o controller
// força GC e manda as capturas desacelerarem via GetThrottleDelay.
type Controller struct {
	config ThresholdConfig

	mu           sync.RWMutex
	stats        MemoryStats
	level        MemoryLevel
	lastGC       time.Time
	gcInProgress bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewController cria o controller. maxMemoryMB zero usa 75% da memória
// vista pelo runtime, com piso de 512MB.
func NewController(maxMemoryMB uint64) *Controller {
	if maxMemoryMB == 0 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		maxMemoryMB = uint64(float64(ms.Sys/1024/1024) * 0.75)
		if maxMemoryMB < 512 {
			maxMemoryMB = 512
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		config: ThresholdConfig{
			MaxMemoryMB:      maxMemoryMB,
			WarningPercent:   60.0,
			CriticalPercent:  75.0,
			EmergencyPercent: 85.0,
			GCTriggerPercent: 70.0,
			CheckInterval:    2 * time.Second,
		},
		lastGC: time.Now(),
		ctx:    ctx,
		cancel: cancel,
	}

	logger.Log.Infow("Memory controller inicializado",
		"max_memory_mb", maxMemoryMB,
		"warning_percent", c.config.WarningPercent,
		"critical_percent", c.config.CriticalPercent,
		"emergency_percent", c.config.EmergencyPercent)

	return c
}

func (c *Controller) Start() {
	go c.monitorLoop()
}

func (c *Controller) Stop() {
	c.cancel()
}

func (c *Controller) monitorLoop() {
	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.check()
		}
	}
}

func (c *Controller) check() {
	stats := c.sample()

	c.mu.Lock()
	oldLevel := c.level
	c.stats = stats
	c.level = stats.Level
	c.mu.Unlock()

	metrics.MemoryUsagePercent.Set(stats.UsagePercent)
	metrics.MemoryAllocMB.Set(float64(stats.AllocMB))
	metrics.MemoryLevel.Set(float64(stats.Level))

	if stats.Level != oldLevel {
		logger.Log.Warnw("Nível de memória alterado",
			"old_level", oldLevel.String(),
			"new_level", stats.Level.String(),
			"usage_percent", stats.UsagePercent,
			"alloc_mb", stats.AllocMB)
	}

	switch stats.Level {
	case MemoryWarning:
		if stats.UsagePercent >= c.config.GCTriggerPercent {
			c.triggerGC("warning")
		}
	case MemoryCritical:
		c.triggerGC("critical")
		debug.FreeOSMemory()
	case MemoryEmergency:
		logger.Log.Errorw("Memória em nível EMERGÊNCIA",
			"usage_percent", stats.UsagePercent,
			"alloc_mb", stats.AllocMB)
		c.triggerGC("emergency")
		debug.FreeOSMemory()
	}
}

func (c *Controller) sample() MemoryStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	allocMB := ms.Alloc / 1024 / 1024
	usage := float64(allocMB) / float64(c.config.MaxMemoryMB) * 100

	return MemoryStats{
		AllocMB:      allocMB,
		SysMB:        ms.Sys / 1024 / 1024,
		HeapInuseMB:  ms.HeapInuse / 1024 / 1024,
		NumGC:        ms.NumGC,
		UsagePercent: usage,
		Level:        c.levelFor(usage),
		Timestamp:    time.Now(),
	}
}

func (c *Controller) levelFor(usagePercent float64) MemoryLevel {
	switch {
	case usagePercent >= c.config.EmergencyPercent:
		return MemoryEmergency
	case usagePercent >= c.config.CriticalPercent:
		return MemoryCritical
	case usagePercent >= c.config.WarningPercent:
		return MemoryWarning
	default:
		return MemoryNormal
	}
}

// triggerGC força uma coleta em background, no máximo uma a cada 5s.
func (c *Controller) triggerGC(reason string) {
	c.mu.Lock()
	if c.gcInProgress || time.Since(c.lastGC) < 5*time.Second {
		c.mu.Unlock()
		return
	}
	c.gcInProgress = true
	c.lastGC = time.Now()
	c.mu.Unlock()

	metrics.MemoryGCCount.Inc()

	go func() {
		start := time.Now()
		runtime.GC()

		c.mu.Lock()
		c.gcInProgress = false
		c.mu.Unlock()

		logger.Log.Infow("Coleta de lixo forçada",
			"reason", reason,
			"duration", time.Since(start).String())
	}()
}

func (c *Controller) GetStats() MemoryStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *Controller) GetLevel() MemoryLevel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// ShouldThrottle indica se as capturas devem desacelerar.
func (c *Controller) ShouldThrottle() bool {
	return c.GetLevel() >= MemoryCritical
}

// ShouldPause indica se as capturas devem parar até a memória baixar.
func (c *Controller) ShouldPause() bool {
	return c.GetLevel() >= MemoryEmergency
}

// GetThrottleDelay retorna quanto a captura da câmera deve esperar antes do
// próximo frame, segundo o nível corrente.
func (c *Controller) GetThrottleDelay(cameraID string) time.Duration {
	level := c.GetLevel()

	switch level {
	case MemoryCritical:
		metrics.CameraThrottled.WithLabelValues(cameraID).Inc()
	case MemoryEmergency:
		metrics.CameraPaused.WithLabelValues(cameraID).Inc()
	}

	return throttleDelays[level]
}
