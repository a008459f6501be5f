package env

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidateListsEveryMissingKey(t *testing.T) {
	t.Setenv(StaffSecretKey, "s")
	t.Setenv(FeedRedisURL, "")
	t.Setenv(AdminIdentities, " ")

	err := Validate(StaffSecretKey, FeedRedisURL, AdminIdentities)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), FeedRedisURL) || !strings.Contains(err.Error(), AdminIdentities) || strings.Contains(err.Error(), StaffSecretKey) {
		t.Fatalf("unexpected error %v", err)
	}
	if err := Validate(StaffSecretKey); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestGetList(t *testing.T) {
	t.Setenv(AdminIdentities, "admin1, ,admin2 ,")
	got := GetList(AdminIdentities)
	if len(got) != 2 || got[0] != "admin1" || got[1] != "admin2" {
		t.Fatalf("GetList = %q", got)
	}
	t.Setenv(AdminIdentities, "")
	if GetList(AdminIdentities) != nil {
		t.Fatal("expected nil for an unset list")
	}
}

func TestTypedGetters(t *testing.T) {
	t.Setenv(EditWindow, "90s")
	t.Setenv(ContinuationWindow, "soon")
	t.Setenv(AppliedRetention, "64")
	t.Setenv(StaffAddr, "")

	if d := GetDuration(EditWindow, time.Minute); d != 90*time.Second {
		t.Fatalf("GetDuration = %v", d)
	}
	if d := GetDuration(ContinuationWindow, time.Minute); d != time.Minute {
		t.Fatalf("bad duration should fall back, got %v", d)
	}
	if n := GetInt(AppliedRetention, 32); n != 64 {
		t.Fatalf("GetInt = %d", n)
	}
	if addr := GetOrDefault(StaffAddr, ":81"); addr != ":81" {
		t.Fatalf("GetOrDefault = %q", addr)
	}
}

func TestMustGetPanics(t *testing.T) {
	t.Setenv(CustomerSecretKey, "")
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	MustGet(CustomerSecretKey)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	if err := loadFile(filepath.Join(dir, ".env")); err != nil {
		t.Fatalf("missing file must be skipped: %v", err)
	}

	t.Setenv(StaffSecretKey, "from-process")
	path := filepath.Join(dir, "staff.env")
	if err := os.WriteFile(path, []byte(StaffSecretKey+"=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := loadFile(path); err != nil {
		t.Fatalf("loadFile error: %v", err)
	}
	if got := Get(StaffSecretKey); got != "from-process" {
		t.Fatalf("process environment must win, got %q", got)
	}

	// a directory in place of the file is reported
	if err := loadFile(dir); err == nil {
		t.Fatal("expected an error for an unreadable .env")
	}
}
