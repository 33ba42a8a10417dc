package handlers

import (
	"github.com/amarinov1974/cmms-system-sub002/internal/api/dto"
	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
)

func moneyString(m *domain.Money) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}

func ticketSummary(t *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:              t.ID,
		ExternalKey:     t.ExternalKey,
		StoreID:         t.StoreID,
		Title:           t.Title,
		Status:          t.Status,
		OwnerUserID:     t.OwnerUserID,
		EstimatedAmount: moneyString(t.EstimatedAmount),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func ticketDetail(t *domain.Ticket, approvals []domain.ApprovalRecord, workOrders []domain.WorkOrder) dto.TicketDetailResponse {
	resp := dto.TicketDetailResponse{
		ID:              t.ID,
		ExternalKey:     t.ExternalKey,
		CompanyID:       t.CompanyID,
		RegionID:        t.RegionID,
		StoreID:         t.StoreID,
		CreatedBy:       t.CreatedByUserID,
		Title:           t.Title,
		Description:     t.Description,
		Status:          t.Status,
		OwnerUserID:     t.OwnerUserID,
		EstimatedAmount: moneyString(t.EstimatedAmount),
		OpenWorkOrderID: t.OpenWorkOrderID,
		RejectReason:    t.RejectReason,
		ApprovalHistory: make([]dto.ApprovalRecordResponse, 0, len(approvals)),
		WorkOrders:      make([]dto.WorkOrderResponse, 0, len(workOrders)),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		ClosedAt:        t.ClosedAt,
	}
	for i := range approvals {
		resp.ApprovalHistory = append(resp.ApprovalHistory, approvalRecordResponse(&approvals[i]))
	}
	for i := range workOrders {
		resp.WorkOrders = append(resp.WorkOrders, workOrderResponse(&workOrders[i]))
	}
	return resp
}

func approvalRecordResponse(r *domain.ApprovalRecord) dto.ApprovalRecordResponse {
	return dto.ApprovalRecordResponse{
		Role:      r.Role,
		UserID:    r.UserID,
		Decision:  r.Decision,
		Reason:    r.Reason,
		CreatedAt: r.CreatedAt,
	}
}

func workOrderResponse(w *domain.WorkOrder) dto.WorkOrderResponse {
	return dto.WorkOrderResponse{
		ID:               w.ID,
		ExternalKey:      w.ExternalKey,
		TicketID:         w.TicketID,
		VendorCompanyID:  w.VendorCompanyID,
		TechnicianUserID: w.TechnicianUserID,
		Status:           w.Status,
		OwnerUserID:      w.OwnerUserID,
		ProposedAmount:   moneyString(w.ProposedAmount),
		LastOutcome:      w.LastOutcome,
		VisitCount:       w.VisitCount,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
		ClosedAt:         w.ClosedAt,
	}
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		RegionID:  u.RegionID,
		StoreID:   u.StoreID,
	}
}
