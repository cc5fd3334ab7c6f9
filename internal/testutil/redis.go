package testutil

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StartRedis launches a temporary Redis container and returns a ready client
// plus a cleanup function. Tests are skipped when docker is not available.
func StartRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	containerName := "lumeron-redis-" + uuid.NewString()
	runArgs := []string{
		"run", "--rm", "-d", "-P",
		"--name", containerName,
		"redis:7-alpine",
	}

	if err := exec.CommandContext(ctx, "docker", runArgs...).Run(); err != nil {
		t.Fatalf("start redis container: %v", err)
	}

	var client *redis.Client
	cleanup := func() {
		if client != nil {
			_ = client.Close()
		}
		_ = exec.Command("docker", "stop", containerName).Run()
	}

	deadline := time.Now().Add(30 * time.Second)
	for {
		out, err := exec.CommandContext(ctx, "docker", "port", containerName, "6379/tcp").Output()
		if err == nil {
			parts := strings.Split(strings.TrimSpace(string(out)), ":")
			if len(parts) == 2 {
				client = redis.NewClient(&redis.Options{Addr: "localhost:" + parts[1]})
				pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
				err = client.Ping(pingCtx).Err()
				pingCancel()
				if err == nil {
					return client, cleanup
				}
				_ = client.Close()
				client = nil
			}
		}

		if time.Now().After(deadline) {
			cleanup()
			t.Fatalf("timeout waiting for redis: %v", err)
		}

		select {
		case <-ctx.Done():
			cleanup()
			t.Fatalf("context cancelled waiting for redis: %v", ctx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}
}
