package approval

import (
	"context"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

// Amount thresholds in cents. Boundary values belong to the lower tier.
const (
	tierOneMax Money = 100_000
	tierTwoMax Money = 300_000
)

// Money aliases the domain type locally for readability of the tier table.
type Money = domain.Money

// UserDirectory resolves the concrete user holding a role within an
// organizational scope. A nil user with nil error means the role is unstaffed.
type UserDirectory interface {
	ResolveUserForRole(ctx context.Context, companyID string, role domain.Role, regionID *string) (*domain.User, error)
}

// Scope is the organizational placement of a ticket, used to pick the
// concrete approver for each chain role.
type Scope struct {
	CompanyID string
	RegionID  string
}

// Resolver computes amount-derived approval chains and walks them.
type Resolver struct {
	directory UserDirectory
}

// NewResolver constructs a resolver over the given user directory.
func NewResolver(directory UserDirectory) *Resolver {
	return &Resolver{directory: directory}
}

// RequiredApprovers maps a cost estimation amount to the ordered sequence of
// roles that must approve it. The chain length is non-decreasing in the
// amount; 1000.00 and 3000.00 exactly fall into the lower tier.
func RequiredApprovers(amount Money) ([]domain.Role, error) {
	if !amount.IsPositive() {
		return nil, apperrors.NewInvalidAmount("estimation amount must be greater than zero")
	}
	switch {
	case amount <= tierOneMax:
		return []domain.Role{domain.RoleAreaManager}, nil
	case amount <= tierTwoMax:
		return []domain.Role{
			domain.RoleAreaManager,
			domain.RoleSalesDirector,
			domain.RoleMaintenanceDirector,
		}, nil
	default:
		return []domain.Role{
			domain.RoleAreaManager,
			domain.RoleSalesDirector,
			domain.RoleMaintenanceDirector,
			domain.RoleBoardOfDirectors,
		}, nil
	}
}

// NextApprover returns the approver following current in the chain, resolved
// to a concrete user within the ticket's scope. A nil current starts the
// chain. A (nil, nil) return means the chain is complete.
//
// AREA_MANAGER is matched on the ticket's region; every other role is matched
// on company alone. An unstaffed role blocks the chain with
// NoApproverAvailable rather than being skipped.
func (r *Resolver) NextApprover(ctx context.Context, chain []domain.Role, scope Scope, current *domain.Role) (*domain.Approver, error) {
	index := 0
	if current != nil {
		pos := -1
		for i, role := range chain {
			if role == *current {
				pos = i
				break
			}
		}
		if pos < 0 {
			// The recorded approver is inconsistent with the amount-derived
			// chain. Re-estimation must reset history, so this cannot occur
			// in correct callers.
			return nil, apperrors.NewInvalidChainState(
				"current approver role " + string(*current) + " is not part of the required chain")
		}
		index = pos + 1
	}

	if index >= len(chain) {
		return nil, nil
	}

	role := chain[index]
	var regionID *string
	if domain.ScopeOf(role) == domain.ScopeRegion {
		regionID = &scope.RegionID
	}
	user, err := r.directory.ResolveUserForRole(ctx, scope.CompanyID, role, regionID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNoApproverAvailable(string(role))
	}

	return &domain.Approver{
		Role:           role,
		UserID:         user.ID,
		UserName:       user.Name,
		IsLastApprover: index == len(chain)-1,
	}, nil
}

// IsValidApprover reports whether the acting user may decide on the ticket's
// pending estimation: an estimation must be active, the ticket must currently
// be routed to the actor, and the actor's role must belong to the
// amount-derived chain. This is a capability check only; chain position is
// enforced separately by walking NextApprover.
func IsValidApprover(ticket *domain.Ticket, actingUserID string, actingRole domain.Role) bool {
	if !ticket.HasEstimation() {
		return false
	}
	if ticket.OwnerUserID != actingUserID {
		return false
	}
	chain, err := RequiredApprovers(*ticket.EstimatedAmount)
	if err != nil {
		return false
	}
	for _, role := range chain {
		if role == actingRole {
			return true
		}
	}
	return false
}
