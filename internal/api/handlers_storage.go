package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"tradejournal/internal/config"
	"tradejournal/pkg/journal"
)

func (h *handler) coreLockMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/storage/switch" {
			next.ServeHTTP(w, r)
			return
		}
		h.coreMu.RLock()
		defer h.coreMu.RUnlock()
		next.ServeHTTP(w, r)
	})
}

func (h *handler) getStorageInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.core.StorageInfo(r.Context())
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}

	envDBPath := strings.TrimSpace(os.Getenv("TRADE_JOURNAL_DB_PATH"))
	dataDir := filepath.Dir(info.DBPath)
	dbName := filepath.Base(info.DBPath)

	available, err := listDBFiles(dataDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("list storage files: %w", err).Error())
			return
		}
		available = []string{}
	}
	if !slices.Contains(available, dbName) {
		available = append([]string{dbName}, available...)
	}

	resp := storageInfoResponse{
		StorageInfo: info,
		DBName:      dbName,
		DataDir:     dataDir,
		Available:   available,
		CanSwitch:   envDBPath == "",
	}
	if !resp.CanSwitch {
		resp.SwitchReason = "Switching disabled when TRADE_JOURNAL_DB_PATH is set."
	}
	writeJSON(w, http.StatusOK, resp)
}

// switchStorage opens another journal file in the data dir, migrates it and
// swaps it in for the current Core.
func (h *handler) switchStorage(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(os.Getenv("TRADE_JOURNAL_DB_PATH")) != "" {
		writeError(w, http.StatusBadRequest, "switching disabled when TRADE_JOURNAL_DB_PATH is set")
		return
	}

	var payload storageSwitchPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dbName, err := sanitizeDBName(payload.DBName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.coreMu.RLock()
	currentPath := ""
	if h.core != nil {
		currentPath = h.core.DBPath()
	}
	h.coreMu.RUnlock()

	dataDir := filepath.Dir(currentPath)
	if currentPath == "" {
		dataDir, err = config.GetDataDir()
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("load data dir: %w", err).Error())
			return
		}
	}
	targetPath := filepath.Join(dataDir, dbName)
	if currentPath != "" && filepath.Clean(currentPath) == filepath.Clean(targetPath) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "active", "db_name": dbName})
		return
	}

	if info, err := os.Stat(targetPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("stat storage file: %w", err).Error())
			return
		}
		if !payload.Create {
			writeError(w, http.StatusNotFound, "storage file not found")
			return
		}
	} else if info.IsDir() {
		writeError(w, http.StatusBadRequest, "storage path is a directory")
		return
	}

	newCore, err := journal.OpenWithOptions(journal.Options{
		DBPath:    targetPath,
		Logger:    h.logger,
		Generator: h.generator,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("open storage file: %w", err).Error())
		return
	}
	if err := newCore.StartupErr(); err != nil {
		if closeErr := newCore.Close(); closeErr != nil {
			h.logger.Error("failed to close new core after startup error", "err", closeErr)
		}
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}

	cfg := config.LoadUserConfig()
	cfg.DBName = dbName
	cfg.DataDir = dataDir
	cfg.SetupComplete = true
	if err := config.SaveUserConfig(cfg); err != nil {
		if closeErr := newCore.Close(); closeErr != nil {
			h.logger.Error("failed to close new core after config save error", "err", closeErr)
		}
		writeError(w, http.StatusInternalServerError, fmt.Errorf("save config: %w", err).Error())
		return
	}

	h.coreMu.Lock()
	oldCore := h.core
	h.core = newCore
	h.coreMu.Unlock()

	if oldCore != nil {
		if closeErr := oldCore.Close(); closeErr != nil {
			h.logger.Error("failed to close old core after storage switch", "err", closeErr)
		}
	}
	h.logger.Info("storage switched", "db_path", targetPath)
	writeJSON(w, http.StatusOK, map[string]string{"status": "switched", "db_name": dbName})
}

func sanitizeDBName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", errors.New("storage file name is required")
	}
	if strings.ContainsAny(name, `/\`) {
		return "", errors.New("storage file name must not include a path")
	}
	if name == "." || name == ".." {
		return "", errors.New("invalid storage file name")
	}
	if !strings.HasSuffix(strings.ToLower(name), ".db") {
		name += ".db"
	}
	return name, nil
}

func listDBFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".db") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
