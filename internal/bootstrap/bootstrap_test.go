package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"cog_mailing_sync/platform/logger"
)

func TestWithRetry(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), logger.Discard(), "op", 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}

	err = WithRetry(context.Background(), logger.Discard(), "op", 2, time.Millisecond, func() error {
		return errors.New("down")
	})
	if err == nil || err.Error() != "op: down" {
		t.Fatalf("unexpected error %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := WithRetry(ctx, logger.Discard(), "op", 3, time.Millisecond, func() error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type redisConfig struct{ url string }

func (c redisConfig) GetRedisURL() string       { return c.url }
func (c redisConfig) GetRedisTLSInsecure() bool { return true }
func (c redisConfig) GetAsynqQueueName() string { return "" }
func (c redisConfig) GetAsynqConcurrency() int  { return 1 }

func TestNewRedis(t *testing.T) {
	rdb, err := NewRedis(redisConfig{url: "redis://:pw@localhost:6379/3"})
	if err != nil {
		t.Fatal(err)
	}
	defer rdb.Close()
	opt := rdb.Options()
	if opt.DB != 3 || opt.Password != "pw" || opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("unexpected options %+v", opt)
	}

	if _, err := NewRedis(redisConfig{url: "nope://"}); err == nil {
		t.Fatal("expected parse error")
	}
}
