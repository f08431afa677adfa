package handler

import (
	"errors"
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole("admin", "manager", "staff")
	mutate := middleware.RequireRole("admin", "manager", "staff")
	manage := middleware.RequireRole("admin", "manager")

	api := router.Group("/api")
	{
		api.GET("/inventory", read, h.GetAllInventory)
		api.GET("/inventory/low-stock", read, h.GetLowStock)
		api.GET("/inventory/variants", read, h.GetVariantsForInventory)

		api.GET("/stock/:variantId", read, h.GetStock)
		api.GET("/stock/:variantId/available", read, h.GetTotalAvailableStock)
		api.GET("/stock/:variantId/movements", read, h.GetMovementHistory)

		api.POST("/stock/receive", mutate, h.Receive)
		api.POST("/stock/ship", mutate, h.Ship)
		api.POST("/stock/reserve", mutate, h.Reserve)
		api.POST("/stock/release", mutate, h.Release)
		api.POST("/stock/transfer", manage, h.Transfer)
		api.POST("/stock/adjust", manage, h.Adjust)
		api.PUT("/stock/minimum", manage, h.SetMinimumStock)
	}
}

// domainStatus maps ledger errors onto HTTP statuses; anything unknown is a 500.
func domainStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingLocation),
		errors.Is(err, service.ErrSameLocation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoInventory),
		errors.Is(err, service.ErrLocationNotFound),
		errors.Is(err, service.ErrVariantNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrOverRelease),
		errors.Is(err, service.ErrLocationCycle),
		errors.Is(err, service.ErrLocationInUse):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	status := domainStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// GetAllInventory lists stock across all variants and locations
// @Summary      List inventory
// @Description  Paginated inventory listing with SKU/name search, location filter and stock state filter
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Items per page (default 20)"
// @Param        search       query  string  false  "SKU or name substring"
// @Param        location_id  query  string  false  "Filter to one location"
// @Param        stock        query  string  false  "all | low | out"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/inventory [get]
func (h *InventoryHandler) GetAllInventory(c *gin.Context) {
	params := pagination.Parse(c)

	items, total, err := h.inventoryService.GetAllInventory(c.Request.Context(), service.InventoryQuery{
		Search:     c.Query("search"),
		LocationID: c.Query("location_id"),
		Stock:      c.DefaultQuery("stock", "all"),
		Page:       params.Page,
		Limit:      params.Limit,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetLowStock lists records at or below their reorder threshold
// @Summary      Low stock report
// @Description  Every inventory record whose quantity or available stock is at or below its minimum
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.LowStockItem}
// @Failure      500  {object}  response.Response
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) GetLowStock(c *gin.Context) {
	items, err := h.inventoryService.GetLowStock(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetVariantsForInventory resolves a search string to variants with stock breakdowns
// @Summary      Variant lookup
// @Description  Resolves a SKU/name search to variants plus their per-location stock, for receiving and shipping screens
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        search  query  string  false  "SKU or name substring"
// @Success      200  {object}  response.Response{data=[]service.VariantStockResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/inventory/variants [get]
func (h *InventoryHandler) GetVariantsForInventory(c *gin.Context) {
	items, err := h.inventoryService.GetVariantsForInventory(c.Request.Context(), c.Query("search"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetStock returns per-location stock records for a variant
// @Summary      Get stock
// @Description  Stock records for a variant, optionally filtered to one location, each with derived available
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        variantId    path   string  true   "Variant ID"
// @Param        location_id  query  string  false  "Location ID"
// @Success      200  {object}  response.Response{data=[]service.StockRecordResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/stock/{variantId} [get]
func (h *InventoryHandler) GetStock(c *gin.Context) {
	records, err := h.inventoryService.GetStock(c.Request.Context(), c.Param("variantId"), c.Query("location_id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}

// GetTotalAvailableStock aggregates sellable stock across all locations
// @Summary      Total available stock
// @Description  Sum of quantity minus reserved across every location for a variant; used by cart validation
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        variantId  path  string  true  "Variant ID"
// @Success      200  {object}  response.Response{data=service.TotalStockResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/stock/{variantId}/available [get]
func (h *InventoryHandler) GetTotalAvailableStock(c *gin.Context) {
	total, err := h.inventoryService.GetTotalAvailableStock(c.Request.Context(), c.Param("variantId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, total))
}

// GetMovementHistory pages through the movement ledger for a variant
// @Summary      Movement history
// @Description  Reverse-chronological stock movements for a variant
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        variantId  path   string  true   "Variant ID"
// @Param        page       query  int     false  "Page number (default 1)"
// @Param        limit      query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/stock/{variantId}/movements [get]
func (h *InventoryHandler) GetMovementHistory(c *gin.Context) {
	params := pagination.Parse(c)

	movements, total, err := h.inventoryService.GetMovementHistory(c.Request.Context(), c.Param("variantId"), params.Page, params.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"movements": movements,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// Receive books inbound goods into a location
// @Summary      Receive stock
// @Description  Increments on-hand stock at the destination, creating the record on first receipt, and appends a RECEIVE movement
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ReceiveRequest  true  "Receive Payload"
// @Success      201  {object}  response.Response{data=service.MovementResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/stock/receive [post]
func (h *InventoryHandler) Receive(c *gin.Context) {
	var req service.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.inventoryService.Receive(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// Ship books outbound goods from a location
// @Summary      Ship stock
// @Description  Decrements on-hand stock (and the reservation backing it) and appends a SHIP movement
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ShipRequest  true  "Ship Payload"
// @Success      201  {object}  response.Response{data=service.MovementResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/stock/ship [post]
func (h *InventoryHandler) Ship(c *gin.Context) {
	var req service.ShipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.inventoryService.Ship(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// Reserve holds stock against a pending order
// @Summary      Reserve stock
// @Description  Locks available stock against an order and appends a RESERVE movement
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ReserveRequest  true  "Reserve Payload"
// @Success      201  {object}  response.Response{data=service.MovementResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/stock/reserve [post]
func (h *InventoryHandler) Reserve(c *gin.Context) {
	var req service.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.inventoryService.Reserve(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// Release returns reserved stock to the available pool
// @Summary      Release stock
// @Description  Reverses a reservation after an order is cancelled or expires and appends a RELEASE movement
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ReleaseRequest  true  "Release Payload"
// @Success      201  {object}  response.Response{data=service.MovementResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/stock/release [post]
func (h *InventoryHandler) Release(c *gin.Context) {
	var req service.ReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.inventoryService.Release(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// Transfer moves available stock between two locations
// @Summary      Transfer stock
// @Description  Moves unreserved on-hand stock between two distinct locations in one transaction and appends a TRANSFER movement
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.TransferRequest  true  "Transfer Payload"
// @Success      201  {object}  response.Response{data=service.MovementResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/stock/transfer [post]
func (h *InventoryHandler) Transfer(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.inventoryService.Transfer(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// Adjust corrects on-hand stock after a physical count
// @Summary      Adjust stock
// @Description  Sets on-hand quantity to the counted value and appends an ADJUST movement with the signed difference
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.AdjustRequest  true  "Adjust Payload"
// @Success      201  {object}  response.Response{data=service.MovementResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/stock/adjust [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req service.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	movement, err := h.inventoryService.Adjust(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// SetMinimumStock upserts the reorder threshold on a record
// @Summary      Set minimum stock
// @Description  Sets the reorder threshold for a variant at a location without touching quantity or reserved
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.SetMinimumRequest  true  "Minimum Payload"
// @Success      200  {object}  response.Response{data=service.StockRecordResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/stock/minimum [put]
func (h *InventoryHandler) SetMinimumStock(c *gin.Context) {
	var req service.SetMinimumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, err := h.inventoryService.SetMinimumStock(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}
