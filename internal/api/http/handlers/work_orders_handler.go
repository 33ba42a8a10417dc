package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/amarinov1974/cmms-system-sub002/internal/api/dto"
	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	"github.com/amarinov1974/cmms-system-sub002/internal/service"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

// WorkOrdersHandler serves vendor work-order endpoints.
type WorkOrdersHandler struct {
	service *service.WorkOrderService
}

// NewWorkOrdersHandler constructs handler.
func NewWorkOrdersHandler(workOrderService *service.WorkOrderService) *WorkOrdersHandler {
	return &WorkOrdersHandler{service: workOrderService}
}

// AcceptWorkOrder POST /work-orders/:id/accept.
func (h *WorkOrdersHandler) AcceptWorkOrder(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AcceptWorkOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechnicianUserID == "" {
		return apperrors.NewValidationError("technician_user_id required", nil)
	}

	workOrder, err := h.service.AcceptWorkOrder(c.Context(), actor, c.Params("id"), req.TechnicianUserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workOrderResponse(workOrder)})
}

// RejectWorkOrder POST /work-orders/:id/reject.
func (h *WorkOrdersHandler) RejectWorkOrder(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RejectWorkOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	workOrder, err := h.service.RejectWorkOrder(c.Context(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workOrderResponse(workOrder)})
}

// StartVisit POST /work-orders/:id/visits/start.
func (h *WorkOrdersHandler) StartVisit(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	workOrder, err := h.service.StartVisit(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workOrderResponse(workOrder)})
}

// CompleteVisit POST /work-orders/:id/visits/complete.
func (h *WorkOrdersHandler) CompleteVisit(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CompleteVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	outcome := domain.VisitOutcome(strings.ToUpper(req.Outcome))
	switch outcome {
	case domain.VisitOutcomeSuccess, domain.VisitOutcomeFollowUpNeeded,
		domain.VisitOutcomeUnsuccessful, domain.VisitOutcomeSuccessNoCharge:
	default:
		return apperrors.NewValidationError("unknown visit outcome", fiber.Map{"outcome": req.Outcome})
	}

	workOrder, err := h.service.CompleteVisit(c.Context(), actor, c.Params("id"), outcome)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workOrderResponse(workOrder)})
}

// PrepareCostProposal POST /work-orders/:id/cost-proposal.
func (h *WorkOrdersHandler) PrepareCostProposal(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CostProposalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	amount, err := domain.ParseMoney(req.Amount)
	if err != nil {
		return apperrors.NewInvalidAmount(err.Error())
	}

	workOrder, err := h.service.PrepareCostProposal(c.Context(), actor, c.Params("id"), amount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workOrderResponse(workOrder)})
}

// ApproveCostProposal POST /work-orders/:id/cost-proposal/approve.
func (h *WorkOrdersHandler) ApproveCostProposal(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	workOrder, err := h.service.ApproveCostProposal(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workOrderResponse(workOrder)})
}

// RequestCostRevision POST /work-orders/:id/cost-proposal/request-revision.
func (h *WorkOrdersHandler) RequestCostRevision(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CostRevisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	workOrder, err := h.service.RequestCostRevision(c.Context(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workOrderResponse(workOrder)})
}

// GetWorkOrder GET /work-orders/:id.
func (h *WorkOrdersHandler) GetWorkOrder(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	workOrder, err := h.service.GetWorkOrder(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": workOrderResponse(workOrder)})
}
