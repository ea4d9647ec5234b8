package transporthttp

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/stevuth/rewardspeak-sub000/internal/config"
	"github.com/stevuth/rewardspeak-sub000/internal/metrics"
	"github.com/stevuth/rewardspeak-sub000/internal/offers"
	"github.com/stevuth/rewardspeak-sub000/internal/pipeline"
	spg "github.com/stevuth/rewardspeak-sub000/internal/storage/postgres"
)

type ServerDeps struct {
	Cfg     config.Config
	Pipe    *pipeline.Pipeline
	DB      *spg.DB
	Offers  *spg.OfferStore
	Runs    *spg.RunLogStore
	Metrics *metrics.Registry
	Now     func() time.Time
}

// syncResponse is the fixed trigger contract: success flag plus the
// human-readable run log, shown verbatim by the admin UI.
type syncResponse struct {
	Success bool   `json:"success"`
	Log     string `json:"log"`
	Count   int    `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

// --- Health ---

func (d *ServerDeps) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (d *ServerDeps) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := d.DB.Ready(r.Context()); err != nil {
		WriteProblem(w, http.StatusServiceUnavailable, "not ready", "database not reachable", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// --- Sync triggers ---

// HandleSync runs the full pipeline synchronously: the admin UI action.
func (d *ServerDeps) HandleSync(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	res := d.Pipe.Sync(r.Context())
	log.Printf("[api] sync run: success=%t count=%d", res.Success, res.Count)

	if !res.Success {
		WriteJSON(w, http.StatusInternalServerError, syncResponse{
			Success: false, Log: res.Log, Count: res.Count, Error: res.Err.Error(),
		})
		return
	}
	WriteJSON(w, http.StatusOK, syncResponse{Success: true, Log: res.Log, Count: res.Count})
}

type prefetchedReq struct {
	Offers []offers.RawOffer `json:"offers"`
}

// HandleSyncPrefetched accepts an already-fetched offer list and performs only
// the storage half of the pipeline. Raw records carry arbitrary upstream
// fields, so decoding is deliberately not strict.
func (d *ServerDeps) HandleSyncPrefetched(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req prefetchedReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, syncResponse{Success: false, Error: "invalid json: " + err.Error()})
		return
	}
	if len(req.Offers) == 0 {
		WriteJSON(w, http.StatusBadRequest, syncResponse{Success: false, Error: "offers: required and must contain at least one item"})
		return
	}

	res := d.Pipe.SyncPrefetched(r.Context(), req.Offers)
	log.Printf("[api] prefetched sync: success=%t count=%d", res.Success, res.Count)

	if !res.Success {
		WriteJSON(w, http.StatusInternalServerError, syncResponse{
			Success: false, Log: res.Log, Error: res.Err.Error(),
		})
		return
	}
	WriteJSON(w, http.StatusOK, syncResponse{Success: true, Log: res.Log, Count: res.Count})
}

type cronResponse struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// HandleCron is the unattended scheduled trigger. Auth is enforced by
// BearerAuth in the router; failures land in the run-log table, which is the
// only place a scheduler operator can see them.
func (d *ServerDeps) HandleCron(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	res := d.Pipe.Sync(r.Context())
	log.Printf("[cron] sync run: success=%t count=%d", res.Success, res.Count)

	if !res.Success {
		WriteJSON(w, http.StatusInternalServerError, cronResponse{
			Error: "offer sync failed", Details: res.Err.Error(),
		})
		return
	}
	WriteJSON(w, http.StatusOK, cronResponse{
		Success: true,
		Message: "synced " + strconv.Itoa(res.Count) + " offers",
	})
}

// --- Admin reads / actions ---

func (d *ServerDeps) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := d.Runs.List(r.Context(), limit)
	if err != nil {
		WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
		return
	}
	if recs == nil {
		recs = []spg.RunRecord{}
	}
	total, err := d.Offers.Count(r.Context())
	if err != nil {
		WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"runs": recs, "total_offers": total})
}

type disableReq struct {
	OfferID  string `json:"offer_id"`
	Disabled bool   `json:"disabled"`
}

// HandleSetDisabled flips an offer's disable flag. Independent of sync: the
// upsert never touches is_disabled, so the value set here sticks.
func (d *ServerDeps) HandleSetDisabled(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req disableReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
		return
	}
	if req.OfferID == "" {
		WriteProblem(w, http.StatusBadRequest, "validation failed", "offer_id is required", nil)
		return
	}
	if err := d.Offers.SetDisabled(r.Context(), req.OfferID, req.Disabled); err != nil {
		if errors.Is(err, spg.ErrOfferNotFound) {
			WriteProblem(w, http.StatusNotFound, "not found", "unknown offer_id", nil)
			return
		}
		WriteProblem(w, http.StatusInternalServerError, "update error", err.Error(), nil)
		return
	}
	log.Printf("[api] offer %s disabled=%t", req.OfferID, req.Disabled)
	WriteJSON(w, http.StatusOK, map[string]any{"offer_id": req.OfferID, "disabled": req.Disabled})
}

// --- Router ---

func (d *ServerDeps) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", d.HandleHealthz)
	mux.HandleFunc("/readyz", d.HandleReadyz)

	rate := RateLimitPerMinute(d.Cfg.RateLimitSyncPerMin, d.Now)

	var sync http.Handler = http.HandlerFunc(d.HandleSync)
	sync = rate(sync)
	sync = APIKeyAuth(d.Cfg.APIKeys)(sync)
	mux.Handle("/v1/sync", sync)

	var prefetched http.Handler = http.HandlerFunc(d.HandleSyncPrefetched)
	prefetched = rate(prefetched)
	prefetched = BodyLimit(d.Cfg.MaxBodyBytes)(prefetched)
	prefetched = RequireJSON(prefetched)
	prefetched = APIKeyAuth(d.Cfg.APIKeys)(prefetched)
	mux.Handle("/v1/sync/offers", prefetched)

	var cron http.Handler = http.HandlerFunc(d.HandleCron)
	cron = rate(cron)
	cron = BearerAuth(d.Cfg.CronSecret)(cron)
	mux.Handle("/v1/sync/cron", cron)

	var runs http.Handler = http.HandlerFunc(d.HandleListRuns)
	runs = APIKeyAuth(d.Cfg.APIKeys)(runs)
	mux.Handle("/v1/sync/runs", runs)

	var disable http.Handler = http.HandlerFunc(d.HandleSetDisabled)
	disable = BodyLimit(d.Cfg.MaxBodyBytes)(disable)
	disable = RequireJSON(disable)
	disable = APIKeyAuth(d.Cfg.APIKeys)(disable)
	mux.Handle("/v1/offers/disable", disable)

	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics.Handler())
	}

	return mux
}
