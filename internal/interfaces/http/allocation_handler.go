package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/almoxarifado-api/internal/application/allocation"
	"github.com/jhoicas/almoxarifado-api/internal/application/dto"
	"github.com/jhoicas/almoxarifado-api/internal/domain/entity"
	"github.com/jhoicas/almoxarifado-api/internal/domain/repository"
)

// AllocationHandler maneja las peticiones HTTP de alocaciones (protegido).
type AllocationHandler struct {
	uc *allocation.UseCase
}

// NewAllocationHandler construye el handler.
func NewAllocationHandler(uc *allocation.UseCase) *AllocationHandler {
	return &AllocationHandler{uc: uc}
}

// Create godoc
// @Summary      Crear solicitud de alocación
// @Description  Almoxarifado: nace aprobada con descuento inmediato. Producción: nace pendiente.
// @Tags         allocations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAllocationRequest  true  "Solicitud"
// @Success      201   {object}  dto.AllocationResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/allocations [post]
func (h *AllocationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAllocationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.CreateRequest(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar alocaciones según visibilidad del actor
// @Description  Almoxarifado ve todas (filtros user_id y status); producción solo las propias.
// @Tags         allocations
// @Security     Bearer
// @Produce      json
// @Param        user_id  query  string  false  "Filtro por solicitante (solo almoxarifado)"
// @Param        status   query  string  false  "pending | approved | rejected"
// @Param        limit    query  int     false  "Límite"  default(20)
// @Param        offset   query  int     false  "Offset"  default(0)
// @Success      200      {object}  dto.AllocationListResponse
// @Router       /api/allocations [get]
func (h *AllocationHandler) List(c *fiber.Ctx) error {
	filter := repository.AllocationFilter{
		UserID: c.Query("user_id"),
		Status: c.Query("status"),
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	out, err := h.uc.List(GetUserID(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Pending godoc
// @Summary      Cola de solicitudes pendientes (solo almoxarifado)
// @Tags         allocations
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200     {object}  dto.AllocationListResponse
// @Router       /api/allocations/pending [get]
func (h *AllocationHandler) Pending(c *fiber.Ctx) error {
	filter := repository.AllocationFilter{
		Status: entity.AllocationPending,
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	out, err := h.uc.List(GetUserID(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener una alocación
// @Tags         allocations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la alocación"
// @Success      200  {object}  dto.AllocationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/allocations/{id} [get]
func (h *AllocationHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Decide godoc
// @Summary      Aprobar o rechazar una solicitud pendiente (solo almoxarifado)
// @Tags         allocations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la alocación"
// @Param        body  body  dto.DecideAllocationRequest  true  "Decisión"
// @Success      200   {object}  dto.AllocationResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/allocations/{id}/decide [post]
func (h *AllocationHandler) Decide(c *fiber.Ctx) error {
	var in dto.DecideAllocationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Decide(c.Context(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
