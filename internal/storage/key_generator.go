package storage

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// KeyStrategy escolhe o sufixo que desambigua frames com o mesmo timestamp.
type KeyStrategy string

const (
	// StrategyBasic: só timestamp. Colisões possíveis sob alta taxa.
	StrategyBasic KeyStrategy = "basic"
	// StrategySequence: timestamp + contador de 5 dígitos (padrão).
	StrategySequence KeyStrategy = "sequence"
	// StrategyUUID: timestamp + uuid curto, para múltiplas instâncias
	// gravando no mesmo Redis.
	StrategyUUID KeyStrategy = "uuid"
)

// O contador recomeça depois de 99999 para caber nos 5 dígitos do formato.
const sequenceWrap = 99999

type KeyGeneratorConfig struct {
	Strategy KeyStrategy
	Prefix   string
	Vhost    string // identifica o cliente, extraído do vhost AMQP
}

// KeyGenerator produz as chaves Redis dos frames, no formato
// {vhost}:{prefix}:{camera_id}:{unix_nano}[:{sufixo}].
// Exemplo: loja_vhost:frames:cam4:1731024000123456789:00001
type KeyGenerator struct {
	config   KeyGeneratorConfig
	sequence uint64
}

func NewKeyGenerator(config KeyGeneratorConfig) *KeyGenerator {
	if config.Strategy == "" {
		config.Strategy = StrategySequence
	}
	if config.Vhost == "" {
		config.Vhost = "default"
	}
	return &KeyGenerator{config: config}
}

func (kg *KeyGenerator) GenerateKey(cameraID string, timestamp time.Time) string {
	base := fmt.Sprintf("%s:%s:%s:%d",
		kg.config.Vhost, kg.config.Prefix, cameraID, timestamp.UnixNano())

	switch kg.config.Strategy {
	case StrategyUUID:
		return base + ":" + uuid.NewString()[:8]
	case StrategyBasic:
		return base
	default:
		return fmt.Sprintf("%s:%05d", base, kg.nextSequence())
	}
}

func (kg *KeyGenerator) nextSequence() uint64 {
	seq := atomic.AddUint64(&kg.sequence, 1)
	return (seq-1)%sequenceWrap + 1
}

// QueryPattern retorna o glob de busca das chaves de uma câmera; cameraID
// vazio cobre todas as câmeras do vhost.
func (kg *KeyGenerator) QueryPattern(cameraID string, vhost string) string {
	if vhost == "" {
		vhost = kg.config.Vhost
	}

	if cameraID == "" {
		return fmt.Sprintf("%s:%s:*", vhost, kg.config.Prefix)
	}
	return fmt.Sprintf("%s:%s:%s:*", vhost, kg.config.Prefix, cameraID)
}

// KeyComponents são os campos decompostos de uma chave de frame.
type KeyComponents struct {
	Vhost     string
	Prefix    string
	CameraID  string
	Timestamp time.Time
	Suffix    string
}

// ParseKey decompõe uma chave gerada por GenerateKey.
func ParseKey(key string) (*KeyComponents, error) {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) < 4 {
		return nil, fmt.Errorf("chave malformada: %s", key)
	}

	rest := parts[3]
	tsStr, suffix := rest, ""
	if i := strings.LastIndex(rest, ":"); i > 0 {
		tsStr, suffix = rest[:i], rest[i+1:]
	}

	unixNano, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("timestamp inválido na chave %q: %w", key, err)
	}

	return &KeyComponents{
		Vhost:     parts[0],
		Prefix:    parts[1],
		CameraID:  parts[2],
		Timestamp: time.Unix(0, unixNano),
		Suffix:    suffix,
	}, nil
}
