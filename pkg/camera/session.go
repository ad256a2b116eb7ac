package camera

// Session é o contrato da sessão de captura da plataforma. A implementação
// concreta (AVFoundation, V4L2, processo FFmpeg) fica por trás desta
// interface; o resto do pipeline só conhece start/stop/restart.
type Session interface {
	Start() error
	Stop()
	Restart() error
	IsRunning() bool
}

// Orientation indica a orientação do dispositivo no momento da captura.
type Orientation int

const (
	OrientationUnknown Orientation = iota
	OrientationLandscape
	OrientationPortrait
)

func (o Orientation) String() string {
	switch o {
	case OrientationLandscape:
		return "landscape"
	case OrientationPortrait:
		return "portrait"
	default:
		return "unknown"
	}
}

// OrientationNotifier expõe a orientação corrente do dispositivo. As
// notificações de mudança são entregues pela plataforma; aqui só importa o
// valor no momento do frame.
type OrientationNotifier interface {
	Current() Orientation
}

// StaticOrientation é um OrientationNotifier fixo, usado por câmeras IP que
// não reportam orientação.
type StaticOrientation Orientation

func (s StaticOrientation) Current() Orientation { return Orientation(s) }

// Dispatcher encaminha funções para um contexto de execução específico. Os
// frames chegam na goroutine que a plataforma escolher; o Dispatcher é o
// mecanismo para entregá-los sempre no mesmo contexto, em ordem.
type Dispatcher interface {
	Dispatch(fn func()) bool
	Close()
}

// SerialDispatcher executa as funções despachadas em ordem, numa única
// goroutine dedicada.
type SerialDispatcher struct {
	fns  chan func()
	done chan struct{}
}

func NewSerialDispatcher(depth int) *SerialDispatcher {
	d := &SerialDispatcher{
		fns:  make(chan func(), depth),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *SerialDispatcher) run() {
	defer close(d.done)
	for fn := range d.fns {
		fn()
	}
}

// Dispatch enfileira fn para execução; retorna false se a fila do
// dispatcher estiver cheia (a função é descartada, nunca bloqueia).
func (d *SerialDispatcher) Dispatch(fn func()) bool {
	select {
	case d.fns <- fn:
		return true
	default:
		return false
	}
}

// Close encerra o dispatcher e aguarda as funções já enfileiradas.
func (d *SerialDispatcher) Close() {
	close(d.fns)
	<-d.done
}
