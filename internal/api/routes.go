package api

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rawblock/id-miner/internal/miner"
	"github.com/rawblock/id-miner/internal/ratelimit"
	"github.com/rawblock/id-miner/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // every origin is accepted; the CORS middleware below only sets response headers
	},
}

// Handler wires the control-channel routes to a reference Hasher and
// an optional session-history store.
type Handler struct {
	hasher miner.Hasher
	store  *store.SessionStore
}

// SetupRouter builds the gin engine: /health and /ws are public (/ws is
// rate-limited per IP), /v1/sessions/:id requires a bearer token (when
// API_AUTH_TOKEN is set), mirroring the teacher's public/protected
// route-group split in internal/api/routes.go.
func SetupRouter(hasher miner.Hasher, st *store.SessionStore) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	h := &Handler{hasher: hasher, store: st}
	limiter := ratelimit.New(60, 10)

	pub := r.Group("/")
	{
		pub.GET("/health", h.handleHealth)
		pub.GET("/ws", limiter.Middleware(), h.handleUpgrade)
	}

	protected := r.Group("/v1")
	protected.Use(AuthMiddleware())
	{
		protected.GET("/sessions/:id", h.handleGetSession)
	}

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "operational",
		"engine":      "id-miner",
		"version":     protocolVersion,
		"storeBacked": h.store != nil,
	})
}

func (h *Handler) handleUpgrade(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	session := NewSession(conn, h.hasher, h.store)
	session.Run(context.Background())
}

func (h *Handler) handleGetSession(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session history is not configured"})
		return
	}
	id := c.Param("id")
	record, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}
