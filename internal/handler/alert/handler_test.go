package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/alert-engine/internal/analytics"
	"github.com/jwalitptl/alert-engine/internal/dispatch"
	"github.com/jwalitptl/alert-engine/internal/model"
	"github.com/jwalitptl/alert-engine/internal/repository"
	"github.com/jwalitptl/alert-engine/internal/service/engagement"
	"github.com/jwalitptl/alert-engine/internal/tracker"
	"github.com/jwalitptl/alert-engine/internal/trigger"
	"github.com/jwalitptl/alert-engine/pkg/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	tr := tracker.New(tracker.Options{Store: store, Logger: logger.Nop()})

	var svc *engagement.Service
	queue := dispatch.NewQueue(dispatch.Options{
		Settings:    func() model.QuietHoursSettings { return svc.QuietHours() },
		Recorder:    tr,
		Logger:      logger.Nop(),
		SettleDelay: 20 * time.Millisecond,
	})
	svc = engagement.NewService(context.Background(), engagement.Options{
		Store:     store,
		Queue:     queue,
		Tracker:   tr,
		Analytics: analytics.NewAggregator(tr, nil),
		Evaluator: trigger.NewEvaluator(trigger.DefaultThresholds()),
		Logger:    logger.Nop(),
	})
	t.Cleanup(queue.ClearAll)

	engine := gin.New()
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSubmitUtilizationEndpoint(t *testing.T) {
	engine := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/alerts/utilization", map[string]interface{}{
		"card_ref":            "card-1",
		"utilization_percent": 92,
		"current_balance":     9200,
		"credit_limit":        10000,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Alert  model.Alert `json:"alert"`
			Status string      `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "presented", resp.Data.Status)
	assert.Equal(t, model.PriorityCritical, resp.Data.Alert.Priority)
}

func TestSubmitUtilizationValidation(t *testing.T) {
	engine := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/alerts/utilization", map[string]interface{}{
		"utilization_percent": 50,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitPaymentAcceptsZeroDays(t *testing.T) {
	engine := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/alerts/payment", map[string]interface{}{
		"card_ref":       "card-2",
		"days_until_due": 0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Alert model.Alert `json:"alert"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.PriorityCritical, resp.Data.Alert.Priority)
}

func TestSubmitGenericRejectsUnknownPriority(t *testing.T) {
	engine := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/alerts/generic", map[string]interface{}{
		"kind":     "education",
		"priority": "urgent",
		"title":    "Tip",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCurrentAndDismissEndpoints(t *testing.T) {
	engine := newTestRouter(t)

	// Nothing presented yet.
	w := doJSON(t, engine, http.MethodPost, "/api/v1/alerts/current/dismiss", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	doJSON(t, engine, http.MethodPost, "/api/v1/alerts/generic", map[string]interface{}{
		"kind":     "education",
		"priority": "low",
		"title":    "Tip",
		"message":  "Keep utilization under 30%.",
	})

	w = doJSON(t, engine, http.MethodGet, "/api/v1/alerts/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tip")

	w = doJSON(t, engine, http.MethodPost, "/api/v1/alerts/current/dismiss", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInteractionEndpoints(t *testing.T) {
	engine := newTestRouter(t)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/alerts/payment", map[string]interface{}{
		"card_ref":       "card-2",
		"days_until_due": 2,
	})
	var resp struct {
		Data struct {
			Alert model.Alert `json:"alert"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	id := resp.Data.Alert.ID

	w = doJSON(t, engine, http.MethodPost, "/api/v1/interactions/"+id+"/opened", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "response_time_ms")

	w = doJSON(t, engine, http.MethodPost, "/api/v1/interactions/"+id+"/deep-link", map[string]interface{}{
		"target_screen_id": "payment_entry",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/v1/interactions/"+id+"/dismissed", map[string]interface{}{
		"source": "shade",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shade")
}
