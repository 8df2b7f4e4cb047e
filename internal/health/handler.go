package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/2beens/guestbook/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

const (
	statusOK       = "ok"
	statusDisabled = "disabled"

	defaultPingTimeout = 2 * time.Second
)

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type Response struct {
	Postgres string `json:"postgres"`
	Redis    string `json:"redis"`
}

// Handler reports whether the configured dependencies answer.
// A nil pinger means the dependency is not used.
type Handler struct {
	db          dbPinger
	redis       redisPinger
	pingTimeout time.Duration
}

func NewHandler(db dbPinger, redisClient redisPinger) *Handler {
	return &Handler{
		db:          db,
		redis:       redisClient,
		pingTimeout: defaultPingTimeout,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.pingTimeout)
	defer cancel()

	resp, healthy := h.check(ctx)

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal health response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if !healthy {
		log.Warnf("health check failed: postgres [%s], redis [%s]", resp.Postgres, resp.Redis)
		status = http.StatusServiceUnavailable
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, status)
}

func (h *Handler) check(ctx context.Context) (Response, bool) {
	healthy := true
	resp := Response{
		Postgres: statusDisabled,
		Redis:    statusDisabled,
	}

	if h.db != nil {
		resp.Postgres = statusOK
		if err := h.db.Ping(ctx); err != nil {
			resp.Postgres = err.Error()
			healthy = false
		}
	}

	if h.redis != nil {
		resp.Redis = statusOK
		if err := h.redis.Ping(ctx).Err(); err != nil {
			resp.Redis = err.Error()
			healthy = false
		}
	}

	return resp, healthy
}
