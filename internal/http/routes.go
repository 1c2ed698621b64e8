package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"lecturepdf/internal/domain"
	"lecturepdf/internal/keys"
	"lecturepdf/internal/services"
	"lecturepdf/internal/storage"
)

type documentSyncer interface {
	SyncAll(ctx context.Context) (domain.SyncReport, error)
}

type documentLister interface {
	ListDerived(ctx context.Context) (domain.ListingView, error)
}

type API struct {
	syncer   documentSyncer
	lister   documentLister
	share    *services.ShareService
	target   storage.Store
	schedule []domain.ScheduleSlot
	logger   *slog.Logger
}

// NewAPI builds the handlers. share may be nil, in which case signed
// document links are not served.
func NewAPI(syncer documentSyncer, lister documentLister, share *services.ShareService, target storage.Store, schedule []domain.ScheduleSlot, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		syncer:   syncer,
		lister:   lister,
		share:    share,
		target:   target,
		schedule: schedule,
		logger:   logger.With("component", "http"),
	}
}

func registerRoutes(r *gin.Engine, api *API, limiter *RateLimiter) {
	listing := []gin.HandlerFunc{api.handleListDocuments}
	if limiter != nil {
		listing = append([]gin.HandlerFunc{limiter.Middleware()}, listing...)
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)
		apiGroup.GET("/categories", api.handleCategories)
		apiGroup.GET("/documents", listing...)
	}

	// Path used by the original web client.
	r.GET("/get-pdfs", listing...)

	if api.share != nil {
		r.GET(services.DocumentRoute+"*key", api.handleServeDocument)
	}
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": keys.Labels(a.schedule),
		"fallback":   domain.CategoryFallback,
	})
}

// handleListDocuments renders any new transcripts, then returns every
// rendered document grouped by category.
func (a *API) handleListDocuments(c *gin.Context) {
	ctx := c.Request.Context()

	if _, err := a.syncer.SyncAll(ctx); err != nil {
		a.logger.ErrorContext(ctx, "sync pass failed", "error", err)
		respondListingFailure(c, err)
		return
	}

	view, err := a.lister.ListDerived(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "listing failed", "error", err)
		respondListingFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": view})
}

func (a *API) handleServeDocument(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	expiresParam := c.Query("exp")
	signature := c.Query("sig")

	if key == "" {
		respondMessage(c, http.StatusBadRequest, "missing document key")
		return
	}
	if expiresParam == "" || signature == "" {
		respondMessage(c, http.StatusBadRequest, "missing signature")
		return
	}

	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid expiration")
		return
	}

	if expires < time.Now().Unix() {
		respondMessage(c, http.StatusGone, "link expired")
		return
	}

	if !a.share.Validate(c.Request.URL.Path, expires, signature) {
		respondMessage(c, http.StatusForbidden, "invalid signature")
		return
	}

	data, err := a.target.Get(c.Request.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		respondMessage(c, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		a.logger.ErrorContext(c.Request.Context(), "failed to read document", "key", key, "error", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", keys.FileName(key)))
	c.Data(http.StatusOK, domain.TargetContentType, data)
}

func respondListingFailure(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Failed to fetch PDF list",
		"details": err.Error(),
	})
}

func respondError(c *gin.Context, status int, err error) {
	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
