package api

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"tradejournal/pkg/journal"
)

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0o600)
}

func setupStorageRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("APPDATA", home)
	t.Setenv("TRADE_JOURNAL_DB_PATH", "")

	dataDir := t.TempDir()
	core, err := journal.OpenWithOptions(journal.Options{
		DBPath: filepath.Join(dataDir, "journal.db"),
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatalf("open core: %v", err)
	}
	router := NewRouterWithOptions(Options{Core: core, Logger: discardLogger()})
	t.Cleanup(func() { _ = core.Close() })
	return router, dataDir
}

func TestGetStorageInfo(t *testing.T) {
	router, dataDir := setupStorageRouter(t)
	if err := writeFile(filepath.Join(dataDir, "archive.db")); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	rr := doRequest(router, http.MethodGet, "/api/storage", nil)
	expectStatus(t, rr, http.StatusOK)
	var info storageInfoResponse
	decodeInto(t, rr, &info)
	if info.DBName != "journal.db" || !info.CanSwitch {
		t.Fatalf("unexpected storage info: %+v", info)
	}
	if len(info.Available) != 2 || info.Available[0] != "archive.db" || info.Available[1] != "journal.db" {
		t.Fatalf("unexpected available files: %v", info.Available)
	}
	if info.Generation.StoredVersion != journal.CurrentGeneration || len(info.Collections) != 3 {
		t.Fatalf("unexpected store details: %+v", info.StorageInfo)
	}
}

func TestGetStorageInfoEnvPathDisablesSwitch(t *testing.T) {
	router, dataDir := setupStorageRouter(t)
	t.Setenv("TRADE_JOURNAL_DB_PATH", filepath.Join(dataDir, "journal.db"))

	rr := doRequest(router, http.MethodGet, "/api/storage", nil)
	expectStatus(t, rr, http.StatusOK)
	var info storageInfoResponse
	decodeInto(t, rr, &info)
	if info.CanSwitch || info.SwitchReason == "" {
		t.Fatalf("expected switching disabled, got %+v", info)
	}

	rr = doRequest(router, http.MethodPost, "/api/storage/switch", map[string]any{"db_name": "other"})
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestSwitchStorage(t *testing.T) {
	router, dataDir := setupStorageRouter(t)

	rr := doRequest(router, http.MethodPost, "/api/storage/switch", map[string]any{"db_name": "journal"})
	expectStatus(t, rr, http.StatusOK)
	if got := parseJSON(t, rr)["status"]; got != "active" {
		t.Fatalf("expected active, got %v", got)
	}

	rr = doRequest(router, http.MethodPost, "/api/storage/switch", map[string]any{"db_name": "prop"})
	expectStatus(t, rr, http.StatusNotFound)

	rr = doRequest(router, http.MethodPost, "/api/storage/switch", map[string]any{"db_name": "../escape"})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = doRequest(router, http.MethodPost, "/api/storage/switch", map[string]any{"db_name": "prop", "create": true})
	expectStatus(t, rr, http.StatusOK)
	if got := parseJSON(t, rr)["status"]; got != "switched" {
		t.Fatalf("expected switched, got %v", got)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "prop.db")); err != nil {
		t.Fatalf("expected new storage file: %v", err)
	}

	rr = doRequest(router, http.MethodGet, "/api/storage", nil)
	var info storageInfoResponse
	decodeInto(t, rr, &info)
	if info.DBName != "prop.db" {
		t.Fatalf("expected prop.db active, got %q", info.DBName)
	}

	// The new file is a fresh install and gets its own seed.
	rr = doRequest(router, http.MethodGet, "/api/accounts", nil)
	var accounts []journal.Account
	decodeInto(t, rr, &accounts)
	if len(accounts) != 1 || accounts[0].ID != journal.DefaultAccountID {
		t.Fatalf("expected seeded default account, got %+v", accounts)
	}
}
