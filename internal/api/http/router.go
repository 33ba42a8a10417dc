package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/amarinov1974/cmms-system-sub002/internal/api/http/handlers"
	"github.com/amarinov1974/cmms-system-sub002/internal/auth"
	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	WorkOrders     *handlers.WorkOrdersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Route-level role gates are coarse;
// ownership and chain-position checks live in the services.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/register", cfg.Users.Register)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", auth.RequireRole(domain.RoleStoreManager), cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
	tickets.Post("/:id/submit", auth.RequireRole(domain.RoleStoreManager), cfg.Tickets.SubmitTicket)
	tickets.Post("/:id/request-info", auth.RequireRole(domain.RoleMaintenanceStaff), cfg.Tickets.RequestInfo)
	tickets.Post("/:id/proceed-to-estimation", auth.RequireRole(domain.RoleMaintenanceStaff), cfg.Tickets.ProceedToEstimation)
	tickets.Post("/:id/resubmit", auth.RequireRole(domain.RoleStoreManager), cfg.Tickets.ResubmitTicket)
	tickets.Post("/:id/withdraw", auth.RequireRole(domain.RoleStoreManager), cfg.Tickets.WithdrawTicket)
	tickets.Post("/:id/estimation", auth.RequireRole(domain.RoleMaintenanceStaff), cfg.Tickets.RecordEstimation)
	tickets.Post("/:id/approval", auth.RequireRole(
		domain.RoleAreaManager,
		domain.RoleSalesDirector,
		domain.RoleMaintenanceDirector,
		domain.RoleBoardOfDirectors,
	), cfg.Tickets.DecideApproval)
	tickets.Post("/:id/work-orders", auth.RequireRole(domain.RoleMaintenanceStaff), cfg.Tickets.CreateWorkOrder)

	workOrders := app.Group("/work-orders", cfg.AuthMiddleware.Handle)
	workOrders.Get("/:id", cfg.WorkOrders.GetWorkOrder)
	workOrders.Post("/:id/accept", auth.RequireRole(domain.RoleVendorAdmin), cfg.WorkOrders.AcceptWorkOrder)
	workOrders.Post("/:id/reject", auth.RequireRole(domain.RoleVendorAdmin), cfg.WorkOrders.RejectWorkOrder)
	workOrders.Post("/:id/visits/start", auth.RequireRole(domain.RoleVendorTechnician), cfg.WorkOrders.StartVisit)
	workOrders.Post("/:id/visits/complete", auth.RequireRole(domain.RoleVendorTechnician), cfg.WorkOrders.CompleteVisit)
	workOrders.Post("/:id/cost-proposal", auth.RequireRole(domain.RoleVendorAdmin), cfg.WorkOrders.PrepareCostProposal)
	workOrders.Post("/:id/cost-proposal/approve", auth.RequireRole(domain.RoleMaintenanceStaff), cfg.WorkOrders.ApproveCostProposal)
	workOrders.Post("/:id/cost-proposal/request-revision", auth.RequireRole(domain.RoleMaintenanceStaff), cfg.WorkOrders.RequestCostRevision)
}
