package api

import (
	"net/http"
	"strconv"
	"time"

	"inventario-service/internal/apperr"
	"inventario-service/internal/models"
	"inventario-service/internal/service"
	"inventario-service/internal/store"
	"inventario-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	inventory *service.InventoryService
	ventas    *service.VentaService
	gate      service.AccessGate
}

// NewHandler creates a new HTTP handler
func NewHandler(inventory *service.InventoryService, ventas *service.VentaService, gate service.AccessGate) *Handler {
	return &Handler{
		inventory: inventory,
		ventas:    ventas,
		gate:      gate,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(h.actorMiddleware())
	{
		v1.GET("/items", h.listItems)
		v1.POST("/items", h.createItem)
		v1.POST("/items/assign", h.assignItems)
		v1.POST("/items/unassign", h.unassignItems)
		v1.POST("/items/import", h.importCSV)
		v1.GET("/items/export", h.exportCSV)
		v1.GET("/items/:id", h.getItem)
		v1.PATCH("/items/:id", h.updateItem)
		v1.DELETE("/items/:id", h.deleteItem)
		v1.POST("/items/:id/split", h.splitItem)

		v1.POST("/ventas", h.createVenta)
		v1.GET("/ventas", h.listVentas)
		v1.GET("/ventas/:id", h.getVenta)
		v1.POST("/ventas/:id/approve", h.approveVenta)
		v1.POST("/ventas/:id/reject", h.rejectVenta)
	}
}

// actorMiddleware resolves the caller identity through the access
// gate. The presentation layer in front of this service authenticates
// the user and forwards the id.
func (h *Handler) actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		usuarioID, _ := strconv.ParseInt(c.GetHeader("X-Usuario-ID"), 10, 64)

		actor, err := h.gate.Resolve(c.Request.Context(), usuarioID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": apperr.Message(err),
			})
			return
		}

		c.Set("actor", actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) models.Actor {
	actor, _ := c.MustGet("actor").(models.Actor)
	return actor
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createItemRequest mirrors the item's descriptive fields.
type createItemRequest struct {
	Identificador *string `json:"identificador"`
	Categoria     *string `json:"categoria"`
	Subcategoria  *string `json:"subcategoria"`
	Objeto        *string `json:"objeto"`
	Condicion     *string `json:"condicion"`
	Anio          *string `json:"anio"`
	Rack          *string `json:"rack"`
	Nivel         *int    `json:"nivel"`
	Comentarios   *string `json:"comentarios"`
}

func (h *Handler) createItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	item := &models.Item{
		Identificador: req.Identificador,
		Categoria:     req.Categoria,
		Subcategoria:  req.Subcategoria,
		Objeto:        req.Objeto,
		Condicion:     req.Condicion,
		Anio:          req.Anio,
		Rack:          req.Rack,
		Nivel:         req.Nivel,
		Comentarios:   req.Comentarios,
	}

	if err := h.inventory.CreateItem(c.Request.Context(), actorFrom(c), item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) listItems(c *gin.Context) {
	items, err := h.inventory.ListItems(c.Request.Context(), actorFrom(c), itemFilterFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func itemFilterFrom(c *gin.Context) store.ItemFilter {
	var filter store.ItemFilter
	if v := c.Query("estado"); v != "" {
		filter.Estado = &v
	}
	if v := c.Query("categoria"); v != "" {
		filter.Categoria = &v
	}
	if v := c.Query("vendedor_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.AsignadoA = &id
		}
	}
	return filter
}

func (h *Handler) getItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	item, err := h.inventory.GetItem(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) updateItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var patch models.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.inventory.UpdateItem(c.Request.Context(), actorFrom(c), id, patch); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.inventory.DeleteItem(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignRequest struct {
	ItemIDs    []int64 `json:"item_ids" binding:"required,min=1"`
	VendedorID int64   `json:"vendedor_id" binding:"required"`
}

func (h *Handler) assignItems(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	assigned, err := h.inventory.AssignItems(c.Request.Context(), actorFrom(c), req.ItemIDs, req.VendedorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assigned": assigned})
}

type unassignRequest struct {
	ItemIDs []int64 `json:"item_ids" binding:"required,min=1"`
}

func (h *Handler) unassignItems(c *gin.Context) {
	var req unassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	unassigned, err := h.inventory.UnassignItems(c.Request.Context(), actorFrom(c), req.ItemIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unassigned": unassigned})
}

type splitRequest struct {
	Objetos []string `json:"objetos" binding:"required,min=2"`
}

func (h *Handler) splitItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req splitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	copies, err := h.inventory.SplitItem(c.Request.Context(), actorFrom(c), id, req.Objetos)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": copies})
}

type importRequest struct {
	Rows []map[string]string `json:"rows" binding:"required"`
}

func (h *Handler) importCSV(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.inventory.ImportCSV(c.Request.Context(), actorFrom(c), req.Rows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) exportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="inventario.csv"`)

	if err := h.inventory.ExportCSV(c.Request.Context(), actorFrom(c), itemFilterFrom(c), c.Writer); err != nil {
		respondError(c, err)
		return
	}
}

func (h *Handler) createVenta(c *gin.Context) {
	var req service.CreateVentaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	venta, err := h.ventas.CreateVenta(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, venta)
}

func (h *Handler) listVentas(c *gin.Context) {
	var filter store.VentaFilter
	if v := c.Query("vendedor_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.VendedorID = &id
		}
	}
	if v := c.Query("estado"); v != "" {
		filter.Estado = &v
	}

	ventas, err := h.ventas.ListVentas(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ventas": ventas})
}

func (h *Handler) getVenta(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	venta, err := h.ventas.GetVenta(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, venta)
}

func (h *Handler) approveVenta(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	venta, err := h.ventas.ApproveVenta(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, venta)
}

func (h *Handler) rejectVenta(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	venta, err := h.ventas.RejectVenta(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, venta)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.Unauthorized:
		status = http.StatusForbidden
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.InvalidState, apperr.Duplicate, apperr.Concurrent:
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{
		"error": apperr.Message(err),
		"kind":  apperr.KindOf(err).String(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
