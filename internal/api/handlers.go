package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tradejournal/pkg/journal"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.core == nil {
		resp.Status = "degraded"
		resp.Error = "journal not initialized"
	} else if err := h.core.StartupErr(); err != nil {
		resp.Status = "degraded"
		resp.Error = err.Error()
		resp.ErrorCode = string(journal.CodeOf(err))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) getMigrationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.core.Migrator().Status(r.Context())
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *handler) runMigrations(w http.ResponseWriter, r *http.Request) {
	report, err := h.core.RunMigrations(r.Context())
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Accounts.

func (h *handler) getAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.core.Accounts.ListAccounts(r.Context())
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *handler) addAccount(w http.ResponseWriter, r *http.Request) {
	var payload accountPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	account, err := h.core.Accounts.CreateAccount(r.Context(), journal.AccountInput{
		Name:    payload.Name,
		Balance: payload.Balance,
	})
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	account, found, err := h.core.Accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	if !found {
		writeErrorResponse(w, r, http.StatusNotFound, journal.NewError(journal.ErrCodeNotFound, "account not found"))
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	var payload accountPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	account, err := h.core.Accounts.UpdateAccount(r.Context(), journal.Account{
		ID:      chi.URLParam(r, "id"),
		Name:    payload.Name,
		Balance: payload.Balance,
	})
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// deleteAccount removes an account and its trades. The seeded default
// account needs force=1.
func (h *handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == journal.DefaultAccountID && r.URL.Query().Get("force") != "1" {
		writeErrorResponse(w, r, http.StatusBadRequest,
			journal.NewError(journal.ErrCodeValidation, "the default account cannot be deleted without force=1"))
		return
	}
	removed, err := h.core.Accounts.DeleteAccountCascade(r.Context(), id)
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteAccountResponse{Status: "deleted", DeletedTrades: removed})
}

func (h *handler) getAccountStats(w http.ResponseWriter, r *http.Request) {
	period, start, end, err := parseStatsQuery(r)
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	stats, err := h.core.AccountStats(r.Context(), chi.URLParam(r, "id"), period, start, end)
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Goals.

func (h *handler) getGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.core.Goals.ListGoals(r.Context(), journal.GoalPeriod(r.URL.Query().Get("period")))
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *handler) addGoal(w http.ResponseWriter, r *http.Request) {
	var payload goalPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	goal, err := h.core.Goals.CreateGoal(r.Context(), journal.GoalInput(payload))
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

func (h *handler) updateGoal(w http.ResponseWriter, r *http.Request) {
	var payload goalPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	goal, err := h.core.Goals.UpdateGoal(r.Context(), journal.Goal{
		ID:       chi.URLParam(r, "id"),
		Period:   payload.Period,
		Text:     payload.Text,
		Progress: payload.Progress,
	})
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *handler) updateGoalProgress(w http.ResponseWriter, r *http.Request) {
	var payload goalProgressPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Progress == nil {
		writeErrorResponse(w, r, http.StatusBadRequest, journal.NewError(journal.ErrCodeValidation, "progress is required"))
		return
	}
	goal, err := h.core.Goals.UpdateGoalProgress(r.Context(), chi.URLParam(r, "id"), *payload.Progress)
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *handler) deleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.core.Goals.DeleteGoal(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Trades.

func (h *handler) getTrades(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var (
		trades []journal.Trade
		err    error
	)
	if accountID := strings.TrimSpace(query.Get("account_id")); accountID != "" {
		trades, err = h.core.Trades.ListTradesByAccount(r.Context(), accountID)
	} else {
		trades, err = h.core.Trades.ListTrades(r.Context())
	}
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	if query.Get("sort") == "date" {
		journal.SortTradesByDateDesc(trades)
	}
	if query.Get("paged") != "1" {
		writeJSON(w, http.StatusOK, trades)
		return
	}
	limit, offset := normalizeLimitOffset(parseIntDefault(query.Get("limit"), 100), parseIntDefault(query.Get("offset"), 0))
	total := len(trades)
	start := min(offset, total)
	page := trades[start : start+min(limit, total-start)]
	writeJSON(w, http.StatusOK, tradesResponse{Items: page, Total: total, Limit: limit, Offset: offset})
}

func (h *handler) addTrade(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeTrade(w, r)
	if !ok {
		return
	}
	trade, err := h.core.Trades.CreateTrade(r.Context(), in)
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, trade)
}

func (h *handler) getTrade(w http.ResponseWriter, r *http.Request) {
	trade, found, err := h.core.Trades.GetTrade(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	if !found {
		writeErrorResponse(w, r, http.StatusNotFound, journal.NewError(journal.ErrCodeNotFound, "trade not found"))
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

func (h *handler) updateTrade(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeTrade(w, r)
	if !ok {
		return
	}
	trade, err := h.core.Trades.UpdateTrade(r.Context(), in.Trade(chi.URLParam(r, "id")))
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

func (h *handler) deleteTrade(w http.ResponseWriter, r *http.Request) {
	if err := h.core.Trades.DeleteTrade(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handler) analyzeTrade(w http.ResponseWriter, r *http.Request) {
	advice, err := h.core.AnalyzeTrade(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, advice)
}

// Statistics.

func (h *handler) getStats(w http.ResponseWriter, r *http.Request) {
	period, start, end, err := parseStatsQuery(r)
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	stats, err := h.core.Stats(r.Context(), period, start, end)
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// parseStatsQuery reads period, start and end; dates are YYYY-MM-DD in the
// server's local time.
func parseStatsQuery(r *http.Request) (journal.Period, time.Time, time.Time, error) {
	query := r.URL.Query()
	period, err := journal.ParsePeriod(query.Get("period"))
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	start, err := parseDay(query.Get("start"))
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	end, err := parseDay(query.Get("end"))
	if err != nil {
		return "", time.Time{}, time.Time{}, err
	}
	return period, start, end, nil
}

func parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, time.Local)
	if err != nil {
		return time.Time{}, journal.WrapError(journal.ErrCodeInvalidInput, "invalid date "+strconv.Quote(raw), err)
	}
	return t, nil
}

// Tools.

func (h *handler) positionSize(w http.ResponseWriter, r *http.Request) {
	var req journal.PositionSizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := journal.PositionSize(req)
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) riskReward(w http.ResponseWriter, r *http.Request) {
	var req journal.RiskRewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := journal.RiskReward(req)
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) marketAnalysis(w http.ResponseWriter, r *http.Request) {
	var payload marketAnalysisPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(payload.Pair) == "" {
		writeErrorResponse(w, r, http.StatusBadRequest, journal.NewError(journal.ErrCodeInvalidInput, "pair is required"))
		return
	}
	writeJSON(w, http.StatusOK, h.core.Coach().AnalyzeMarket(r.Context(), payload.Pair))
}

func (h *handler) getQuote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.core.Coach().MotivationQuote(r.Context()))
}

// Helpers.

func decodeTrade(w http.ResponseWriter, r *http.Request) (journal.TradeInput, bool) {
	var payload tradePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return journal.TradeInput{}, false
	}
	in, err := payload.input()
	if err != nil {
		writeErrorResponse(w, r, http.StatusBadRequest, err)
		return journal.TradeInput{}, false
	}
	return in, true
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

// maxPageLimit caps the page size of paged listings.
const maxPageLimit = 1000

func normalizeLimitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
