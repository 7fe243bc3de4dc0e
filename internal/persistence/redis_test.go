package persistence

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/stagepay/pos-core/internal/config"
)

func TestNewRedisWithoutAddress(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{}, zap.NewNop())
	if r.ClientHandle() != nil {
		t.Fatalf("expected no client without address")
	}
	if err := r.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error without client")
	}
	r.Close()
}

func TestNilRedis(t *testing.T) {
	var r *Redis
	if r.ClientHandle() != nil {
		t.Fatalf("nil Redis returned a client")
	}
	if err := r.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error on nil Redis")
	}
}
