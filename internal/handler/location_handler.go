package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	locationService service.LocationService
}

func NewLocationHandler(locationService service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

func (h *LocationHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole("admin", "manager", "staff")
	manage := middleware.RequireRole("admin", "manager")

	locations := router.Group("/api/locations")
	{
		locations.GET("", read, h.List)
		locations.GET("/tree", read, h.Tree)
		locations.POST("", manage, h.Create)
		locations.PUT("/:id", manage, h.Update)
		locations.DELETE("/:id", manage, h.Delete)
	}
}

// List returns all locations as a flat list
// @Summary      List locations
// @Description  Flat list of all warehouse locations with their parent codes
// @Tags         locations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.LocationResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/locations [get]
func (h *LocationHandler) List(c *gin.Context) {
	locations, err := h.locationService.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, locations))
}

// Tree returns the location hierarchy nested under its roots
// @Summary      Location tree
// @Description  Warehouse hierarchy with zones, shelves and bins nested under their parents
// @Tags         locations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.LocationResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/locations/tree [get]
func (h *LocationHandler) Tree(c *gin.Context) {
	tree, err := h.locationService.Tree(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tree))
}

// Create adds a location to the hierarchy
// @Summary      Create location
// @Description  Creates a warehouse, zone, shelf or bin with a unique code and optional parent
// @Tags         locations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateLocationRequest  true  "Create Location Payload"
// @Success      201  {object}  response.Response{data=service.LocationResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/locations [post]
func (h *LocationHandler) Create(c *gin.Context) {
	var req service.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	location, err := h.locationService.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, location))
}

// Update edits a location's name, code or parent
// @Summary      Update location
// @Description  Updates a location; parent assignments that would create a cycle are rejected
// @Tags         locations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                         true  "Location ID"
// @Param        payload  body  service.UpdateLocationRequest  true  "Update Location Payload"
// @Success      200  {object}  response.Response{data=service.LocationResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/locations/{id} [put]
func (h *LocationHandler) Update(c *gin.Context) {
	var req service.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	location, err := h.locationService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, location))
}

// Delete removes an empty leaf location
// @Summary      Delete location
// @Description  Deletes a location once it owns no child locations and no inventory records
// @Tags         locations
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Location ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/locations/{id} [delete]
func (h *LocationHandler) Delete(c *gin.Context) {
	if err := h.locationService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Location deleted successfully"))
}
