package blob

import (
	"context"
	"os"
	"testing"
)

func TestFactoryMemory(t *testing.T) {
	t.Setenv("RANKCORE_BLOB_DRIVER", "memory")
	bs, err := Open(context.Background())
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if bs.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %s", bs.Driver())
	}
}

func TestFactoryDefaultFilesystemAndErrors(t *testing.T) {
	ctx := context.Background()
	_ = os.Unsetenv("RANKCORE_BLOB_DRIVER") // explicitly ignore error
	dir := t.TempDir()
	t.Setenv("RANKCORE_BLOB_FS_ROOT", dir)
	bs, err := Open(ctx)
	if err != nil || bs.Driver() != DriverFilesystem {
		t.Fatalf("expected filesystem driver: %v %v", bs, err)
	}
	if _, err := bs.Head(ctx, "does-not-exist"); err == nil {
		t.Fatalf("expected head error")
	}
	if _, _, err := bs.Get(ctx, "does-not-exist"); err == nil {
		t.Fatalf("expected get error")
	}
}

func TestFactoryUnknownDriver(t *testing.T) {
	t.Setenv("RANKCORE_BLOB_DRIVER", "tape")
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestS3OpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("RANKCORE_BLOB_DRIVER", "s3")
	_ = os.Unsetenv("RANKCORE_S3_BUCKET") // ensure missing; ignore error
	if _, err := Open(context.Background()); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestNotFoundDetection(t *testing.T) {
	ctx := context.Background()
	bs := NewMemory()
	_, _, err := bs.Get(ctx, "absent.csv")
	if err == nil {
		t.Fatalf("expected error for absent key")
	}
	if !IsNotFound(err) {
		t.Fatalf("expected not-found classification, got %v", err)
	}
}
