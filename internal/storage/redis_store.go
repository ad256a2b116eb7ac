package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/T3-Labs/edge-capture/pkg/buffer"
	"github.com/go-redis/redis/v8"
)

// RedisStore retém os frames recentes no Redis com TTL, para consumidores
// que precisam reler o frame bruto (a mensagem AMQP carrega só a chave no
// metadata). As chaves vêm do KeyGenerator, escopadas pelo vhost do cliente.
type RedisStore struct {
	client  *redis.Client
	keys    *KeyGenerator
	ttl     time.Duration
	enabled bool
}

func NewRedisStore(addr string, ttlSeconds int, prefix, vhost string, enabled bool) *RedisStore {
	if !enabled {
		return &RedisStore{enabled: false}
	}

	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		keys: NewKeyGenerator(KeyGeneratorConfig{
			Strategy: StrategySequence,
			Prefix:   prefix,
			Vhost:    vhost,
		}),
		ttl:     time.Duration(ttlSeconds) * time.Second,
		enabled: true,
	}
}

func (r *RedisStore) Enabled() bool {
	return r.enabled
}

// SaveFrame grava o conteúdo do frame com o TTL configurado e retorna a
// chave gerada. O frame é emprestado só durante a chamada; o go-redis copia
// o payload ao montar o comando.
func (r *RedisStore) SaveFrame(ctx context.Context, cameraID string, timestamp time.Time, frame *buffer.Buffer) (string, error) {
	if !r.enabled {
		return "", nil
	}

	key := r.keys.GenerateKey(cameraID, timestamp)
	if err := r.client.Set(ctx, key, frame.Data(), r.ttl).Err(); err != nil {
		return "", fmt.Errorf("redis set: %w", err)
	}
	return key, nil
}

// QueryPattern retorna o glob que cobre as chaves de uma câmera (ou de
// todas, com cameraID vazio).
func (r *RedisStore) QueryPattern(cameraID string) string {
	if !r.enabled {
		return ""
	}
	return r.keys.QueryPattern(cameraID, "")
}
