// Package server is the transport glue over the planner command interface:
// one endpoint dispatching on an action parameter, with the legacy
// success/error envelope shape.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/wayfarerhq/wayfarer/backend/internal/planner"
	"github.com/wayfarerhq/wayfarer/backend/internal/store"
	"go.uber.org/zap"
)

var errMissingPlanner = errors.New("planner service dependency required")

// Dependencies wires the command service into the HTTP layer.
type Dependencies struct {
	Planner *planner.Service
	Logger  *zap.Logger
	Clock   func() time.Time
}

// NewHTTPHandler builds the gin router exposing the action API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Planner == nil {
		return nil, errMissingPlanner
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		planner: deps.Planner,
		logger:  logger,
		clock:   clock,
	}

	router.GET("/api", handler.handleAction)
	router.POST("/api", handler.handleAction)

	return router, nil
}

type httpHandler struct {
	planner *planner.Service
	logger  *zap.Logger
	clock   func() time.Time
}

type successEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (h *httpHandler) handleAction(c *gin.Context) {
	action := c.Query("action")
	payload := h.parsePayload(c)

	switch action {
	case "ping":
		h.writeSuccess(c, gin.H{
			"message":   "pong",
			"timestamp": h.clock().UTC().Format(time.RFC3339),
		})
	case "login":
		user, err := h.planner.Login(payload["email"], payload["password"])
		if err != nil {
			h.writeFailure(c, action, err)
			return
		}
		h.writeSuccess(c, user)
	case "register":
		profile := store.Row{}
		for column, value := range payload {
			if column == "password" {
				continue
			}
			profile[column] = value
		}
		user, err := h.planner.Register(payload["email"], payload["password"], profile)
		if err != nil {
			h.writeFailure(c, action, err)
			return
		}
		h.writeSuccess(c, user)
	default:
		h.handleProtectedAction(c, action, payload)
	}
}

func (h *httpHandler) handleProtectedAction(c *gin.Context, action string, payload store.Row) {
	caller, err := h.planner.Authenticate(bearerToken(c))
	if err != nil {
		h.writeFailure(c, action, err)
		return
	}
	if caller == nil {
		h.logger.Info("request without valid session", zap.String("action", action))
		h.writeError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	switch action {
	case "getTrips":
		owned, err := h.planner.ListTrips(caller.Email)
		if err != nil {
			h.writeFailure(c, action, err)
			return
		}
		h.writeSuccess(c, owned)
	case "getTripDetails":
		tripID := firstOf(c.Query("trip_id"), payload["trip_id"])
		details, err := h.planner.GetTrip(tripID, caller.Email)
		if err != nil {
			h.writeFailure(c, action, err)
			return
		}
		h.writeSuccess(c, details)
	case "createTrip":
		trip, err := h.planner.CreateTrip(payload, caller.Email)
		if err != nil {
			h.writeFailure(c, action, err)
			return
		}
		h.writeSuccess(c, trip)
	case "updateTrip":
		if err := h.planner.UpdateTrip(payload["id"], payload, caller.Email); err != nil {
			h.writeFailure(c, action, err)
			return
		}
		h.writeSuccess(c, gin.H{"success": true})
	case "deleteTrip":
		tripID := firstOf(c.Query("trip_id"), payload["trip_id"])
		if err := h.planner.DeleteTrip(tripID, caller.Email); err != nil {
			h.writeFailure(c, action, err)
			return
		}
		h.writeSuccess(c, gin.H{"success": true})
	case "addItineraryItem":
		item, err := h.planner.AddItem(payload, caller.Email)
		if err != nil {
			h.writeFailure(c, action, err)
			return
		}
		h.writeSuccess(c, item)
	case "updateItineraryItem":
		if err := h.planner.UpdateItem(payload["id"], payload); err != nil {
			h.writeFailure(c, action, err)
			return
		}
		h.writeSuccess(c, gin.H{"success": true})
	case "deleteItineraryItem":
		itemID := firstOf(c.Query("id"), payload["id"])
		if err := h.planner.DeleteItem(itemID); err != nil {
			h.writeFailure(c, action, err)
			return
		}
		h.writeSuccess(c, gin.H{"success": true})
	default:
		h.writeError(c, http.StatusNotFound, "Unknown action: "+action)
	}
}

// parsePayload flattens the JSON request body into sheet cell values. Nested
// arrays and objects are re-serialized to JSON strings so object-valued
// columns such as location_json round-trip.
func (h *httpHandler) parsePayload(c *gin.Context) store.Row {
	payload := store.Row{}
	if c.Request == nil || c.Request.Body == nil || c.Request.Method != http.MethodPost {
		return payload
	}
	raw := map[string]any{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		return payload
	}
	for column, value := range raw {
		switch typed := value.(type) {
		case string:
			payload[column] = typed
		case float64:
			if typed == float64(int64(typed)) {
				payload[column] = strconv.FormatInt(int64(typed), 10)
			} else {
				payload[column] = strconv.FormatFloat(typed, 'f', -1, 64)
			}
		case bool:
			payload[column] = strconv.FormatBool(typed)
		case nil:
			// Absent value; leave the cell untouched.
		default:
			encoded, err := json.Marshal(typed)
			if err != nil {
				h.logger.Warn("dropping unencodable payload value", zap.String("column", column), zap.Error(err))
				continue
			}
			payload[column] = string(encoded)
		}
	}
	return payload
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func firstOf(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func (h *httpHandler) writeSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, successEnvelope{Status: "success", Data: data})
}

func (h *httpHandler) writeFailure(c *gin.Context, action string, err error) {
	if failure, ok := planner.AsFailure(err); ok {
		h.writeError(c, failure.Code, failure.Message)
		return
	}
	h.logger.Error("unhandled command error", zap.String("action", action), zap.Error(err))
	h.writeError(c, http.StatusInternalServerError, "Internal error")
}

func (h *httpHandler) writeError(c *gin.Context, code int, message string) {
	c.JSON(code, errorEnvelope{Status: "error", Message: message, Code: code})
}
