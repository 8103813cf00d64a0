package handler

import (
	"net/http"

	"attendance_tracker/internal/logger"
	"attendance_tracker/internal/model"
	"attendance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// StoreHandler handles store management for admins
type StoreHandler struct {
	service service.StoreService
	log     *logger.Logger
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(s service.StoreService, log *logger.Logger) *StoreHandler {
	return &StoreHandler{service: s, log: log}
}

func (h *StoreHandler) ListStores(c *gin.Context) {
	adminID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	stores, err := h.service.List(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve stores")
		return
	}
	if stores == nil {
		stores = []model.Store{}
	}
	c.JSON(http.StatusOK, stores)
}

func (h *StoreHandler) GetStore(c *gin.Context) {
	adminID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	store, err := h.service.Get(c.Request.Context(), adminID, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve store")
		return
	}
	c.JSON(http.StatusOK, store)
}

func (h *StoreHandler) CreateStore(c *gin.Context) {
	adminID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	var req model.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	store, err := h.service.Create(c.Request.Context(), adminID, req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create store")
		return
	}
	c.JSON(http.StatusCreated, store)
}

func (h *StoreHandler) UpdateStore(c *gin.Context) {
	adminID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	var req model.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	store, err := h.service.Update(c.Request.Context(), adminID, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update store")
		return
	}
	c.JSON(http.StatusOK, store)
}

func (h *StoreHandler) DeleteStore(c *gin.Context) {
	adminID, ok := mustAuthUserID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), adminID, c.Param("id")); err != nil {
		respondError(c, h.log, err, "Failed to delete store")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Store deleted successfully"})
}

// RegisterStoreRoutes registers store routes
func (h *StoreHandler) RegisterStoreRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	storeRoutes := rg.Group("/stores")
	storeRoutes.Use(authMW, adminMW)
	{
		storeRoutes.GET("", h.ListStores)
		storeRoutes.POST("", h.CreateStore)
		storeRoutes.GET("/:id", h.GetStore)
		storeRoutes.PUT("/:id", h.UpdateStore)
		storeRoutes.DELETE("/:id", h.DeleteStore)
	}
}
