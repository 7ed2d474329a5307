package testhelpers

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupRedis returns a client for REDIS_HOST when set, otherwise for a fresh
// redis container. Skipped when neither is available.
func SetupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	addr := ""
	if host := os.Getenv("REDIS_HOST"); host != "" {
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		addr = fmt.Sprintf("%s:%s", host, port)
	} else {
		if _, err := exec.LookPath("docker"); err != nil {
			t.Skip("docker not installed and REDIS_HOST not set, skipping redis test")
		}
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			},
			Started: true,
		})
		if err != nil {
			t.Fatalf("failed to start redis container: %v", err)
		}
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := container.Terminate(ctx); err != nil {
				t.Errorf("failed to terminate container: %v", err)
			}
		})
		endpoint, err := container.Endpoint(ctx, "")
		if err != nil {
			t.Fatalf("failed to get redis endpoint: %v", err)
		}
		addr = endpoint
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to ping redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}
