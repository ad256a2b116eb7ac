package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log é o logger global do serviço. InitLogger deve ser chamado uma vez no
// arranque, antes de qualquer pacote logar.
var Log *zap.SugaredLogger

func InitLogger(development bool) error {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// O pipeline loga por frame em nível debug; sem amostragem isso afoga o
	// stdout com dezenas de câmeras
	cfg.Sampling = &zap.SamplingConfig{
		Initial:    100,
		Thereafter: 100,
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	Log = l.Sugar()
	return nil
}

func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
