package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/amarinov1974/cmms-system-sub002/internal/api/dto"
	"github.com/amarinov1974/cmms-system-sub002/internal/auth"
	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	"github.com/amarinov1974/cmms-system-sub002/internal/service"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

// TicketsHandler serves maintenance ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

func requirePrincipal(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	return principal.User, nil
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.Description == "" {
		return apperrors.NewValidationError("title and description required", nil)
	}

	ticket, err := h.service.CreateTicket(c.Context(), actor, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// SubmitTicket POST /tickets/:id/submit.
func (h *TicketsHandler) SubmitTicket(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.SubmitTicket(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// RequestInfo POST /tickets/:id/request-info.
func (h *TicketsHandler) RequestInfo(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.RequestInfo(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ProceedToEstimation POST /tickets/:id/proceed-to-estimation.
func (h *TicketsHandler) ProceedToEstimation(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.ProceedToEstimation(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ResubmitTicket POST /tickets/:id/resubmit.
func (h *TicketsHandler) ResubmitTicket(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ResubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ResubmitTicket(c.Context(), actor, c.Params("id"), req.Description)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// WithdrawTicket POST /tickets/:id/withdraw.
func (h *TicketsHandler) WithdrawTicket(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.WithdrawTicket(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// RecordEstimation POST /tickets/:id/estimation.
func (h *TicketsHandler) RecordEstimation(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.EstimationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	amount, err := domain.ParseMoney(req.Amount)
	if err != nil {
		return apperrors.NewInvalidAmount(err.Error())
	}
	ticket, err := h.service.RecordCostEstimation(c.Context(), actor, c.Params("id"), amount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// DecideApproval POST /tickets/:id/approval.
func (h *TicketsHandler) DecideApproval(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ApprovalDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	decision := domain.ApprovalDecision(strings.ToUpper(req.Decision))
	if decision != domain.DecisionApprove && decision != domain.DecisionReject {
		return apperrors.NewValidationError("decision must be APPROVE or REJECT", nil)
	}

	outcome, err := h.service.DecideApproval(c.Context(), actor, c.Params("id"), decision, req.Reason)
	if err != nil {
		return err
	}
	resp := dto.DecisionResponse{Ticket: ticketSummary(outcome.Ticket)}
	for _, effect := range outcome.SideEffects {
		resp.SideEffects = append(resp.SideEffects, string(effect))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateWorkOrder POST /tickets/:id/work-orders.
func (h *TicketsHandler) CreateWorkOrder(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateWorkOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.VendorCompanyID == "" {
		return apperrors.NewValidationError("vendor_company_id required", nil)
	}

	workOrder, _, err := h.service.CreateWorkOrder(c.Context(), actor, c.Params("id"), req.VendorCompanyID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": workOrderResponse(workOrder)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	statuses := parseStatuses(c.Query("status"))
	limit := parseIntDefault(c.Query("limit"), 50)
	offset := parseIntDefault(c.Query("offset"), 0)

	tickets, err := h.service.ListTickets(c.Context(), actor, statuses, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, approvals, workOrders, err := h.service.GetTicket(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, approvals, workOrders)})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	records, err := h.service.ListHistory(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]fiber.Map, 0, len(records))
	for i := range records {
		r := &records[i]
		items = append(items, fiber.Map{
			"ticket_id":     r.TicketID,
			"work_order_id": r.WorkOrderID,
			"actor_user_id": r.ActorUserID,
			"actor_role":    r.ActorRole,
			"old_status":    r.OldStatus,
			"new_status":    r.NewStatus,
			"comment":       r.Comment,
			"created_at":    r.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseStatuses(raw string) []domain.TicketStatus {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	statuses := make([]domain.TicketStatus, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		statuses = append(statuses, domain.TicketStatus(strings.ToUpper(part)))
	}
	return statuses
}

func parseIntDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
