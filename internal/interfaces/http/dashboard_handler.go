package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/almoxarifado-api/internal/application/dashboard"
)

// DashboardHandler maneja los paneles por rol (protegido).
type DashboardHandler struct {
	uc *dashboard.UseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *dashboard.UseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// Warehouse godoc
// @Summary      Panel del almoxarifado
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.WarehouseDashboardResponse
// @Router       /api/dashboard/warehouse [get]
func (h *DashboardHandler) Warehouse(c *fiber.Ctx) error {
	out, err := h.uc.Warehouse(GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Production godoc
// @Summary      Panel personal de producción
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ProductionDashboardResponse
// @Router       /api/dashboard/production [get]
func (h *DashboardHandler) Production(c *fiber.Ctx) error {
	out, err := h.uc.Production(GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
