package approval

import (
	"context"
	"testing"

	"github.com/amarinov1974/cmms-system-sub002/internal/domain"
	apperrors "github.com/amarinov1974/cmms-system-sub002/pkg/util"
)

// fakeDirectory resolves roles from a static staffing table. Keys are
// role or role+region for region-scoped roles.
type fakeDirectory struct {
	users map[string]*domain.User
}

func (d *fakeDirectory) ResolveUserForRole(_ context.Context, companyID string, role domain.Role, regionID *string) (*domain.User, error) {
	key := companyID + "/" + string(role)
	if regionID != nil {
		key += "/" + *regionID
	}
	return d.users[key], nil
}

func staffedDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[string]*domain.User{
		"acme/AREA_MANAGER/r1":      {ID: "am-1", Name: "Area Manager", Role: domain.RoleAreaManager},
		"acme/SALES_DIRECTOR":       {ID: "sd-1", Name: "Sales Director", Role: domain.RoleSalesDirector},
		"acme/MAINTENANCE_DIRECTOR": {ID: "md-1", Name: "Maintenance Director", Role: domain.RoleMaintenanceDirector},
		"acme/BOARD_OF_DIRECTORS":   {ID: "bd-1", Name: "Board", Role: domain.RoleBoardOfDirectors},
		"acme/MAINTENANCE_STAFF":    {ID: "ms-1", Name: "Maintenance Staff", Role: domain.RoleMaintenanceStaff},
	}}
}

func TestRequiredApprovers(t *testing.T) {
	cases := []struct {
		name    string
		amount  domain.Money
		want    []domain.Role
		wantErr string
	}{
		{name: "below first threshold", amount: 50_000, want: []domain.Role{domain.RoleAreaManager}},
		{name: "exactly 1000 stays tier one", amount: 100_000, want: []domain.Role{domain.RoleAreaManager}},
		{name: "one cent over 1000", amount: 100_001, want: []domain.Role{
			domain.RoleAreaManager, domain.RoleSalesDirector, domain.RoleMaintenanceDirector}},
		{name: "exactly 3000 stays tier two", amount: 300_000, want: []domain.Role{
			domain.RoleAreaManager, domain.RoleSalesDirector, domain.RoleMaintenanceDirector}},
		{name: "one cent over 3000", amount: 300_001, want: []domain.Role{
			domain.RoleAreaManager, domain.RoleSalesDirector, domain.RoleMaintenanceDirector, domain.RoleBoardOfDirectors}},
		{name: "zero rejected", amount: 0, wantErr: apperrors.CodeInvalidAmount},
		{name: "negative rejected", amount: -100, wantErr: apperrors.CodeInvalidAmount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chain, err := RequiredApprovers(tc.amount)
			if tc.wantErr != "" {
				if !apperrors.HasCode(err, tc.wantErr) {
					t.Fatalf("expected %s, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(chain) != len(tc.want) {
				t.Fatalf("chain %v, want %v", chain, tc.want)
			}
			for i := range chain {
				if chain[i] != tc.want[i] {
					t.Fatalf("chain[%d] = %s, want %s", i, chain[i], tc.want[i])
				}
			}
		})
	}
}

func TestRequiredApproversNonDecreasing(t *testing.T) {
	prev := 0
	for _, amount := range []domain.Money{1, 50_000, 100_000, 100_001, 200_000, 300_000, 300_001, 1_000_000} {
		chain, err := RequiredApprovers(amount)
		if err != nil {
			t.Fatalf("RequiredApprovers(%d): %v", amount, err)
		}
		if len(chain) < prev {
			t.Fatalf("chain length decreased at amount %d: %d -> %d", amount, prev, len(chain))
		}
		prev = len(chain)
	}
}

func TestNextApproverWalksChain(t *testing.T) {
	resolver := NewResolver(staffedDirectory())
	scope := Scope{CompanyID: "acme", RegionID: "r1"}
	chain, err := RequiredApprovers(300_001)
	if err != nil {
		t.Fatal(err)
	}

	wantIDs := []string{"am-1", "sd-1", "md-1", "bd-1"}
	var current *domain.Role
	for i, wantID := range wantIDs {
		next, err := resolver.NextApprover(context.Background(), chain, scope, current)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if next == nil {
			t.Fatalf("step %d: chain ended early", i)
		}
		if next.UserID != wantID {
			t.Fatalf("step %d: resolved %s, want %s", i, next.UserID, wantID)
		}
		if last := i == len(wantIDs)-1; next.IsLastApprover != last {
			t.Fatalf("step %d: IsLastApprover = %v, want %v", i, next.IsLastApprover, last)
		}
		role := next.Role
		current = &role
	}

	done, err := resolver.NextApprover(context.Background(), chain, scope, current)
	if err != nil {
		t.Fatalf("final step: %v", err)
	}
	if done != nil {
		t.Fatalf("expected chain completion, got %+v", done)
	}
}

func TestNextApproverUnknownCurrentRole(t *testing.T) {
	resolver := NewResolver(staffedDirectory())
	chain := []domain.Role{domain.RoleAreaManager}
	current := domain.RoleBoardOfDirectors

	_, err := resolver.NextApprover(context.Background(), chain, Scope{CompanyID: "acme", RegionID: "r1"}, &current)
	if !apperrors.HasCode(err, apperrors.CodeInvalidChainState) {
		t.Fatalf("expected INVALID_CHAIN_STATE, got %v", err)
	}
}

func TestNextApproverUnstaffedRoleBlocks(t *testing.T) {
	dir := staffedDirectory()
	delete(dir.users, "acme/SALES_DIRECTOR")
	resolver := NewResolver(dir)
	chain, _ := RequiredApprovers(200_000)
	current := domain.RoleAreaManager

	_, err := resolver.NextApprover(context.Background(), chain, Scope{CompanyID: "acme", RegionID: "r1"}, &current)
	if !apperrors.HasCode(err, apperrors.CodeNoApproverAvailable) {
		t.Fatalf("expected NO_APPROVER_AVAILABLE, got %v", err)
	}
}

func TestNextApproverMatchesAreaManagerOnRegion(t *testing.T) {
	resolver := NewResolver(staffedDirectory())
	chain := []domain.Role{domain.RoleAreaManager}

	// The staffed area manager belongs to region r1 only.
	_, err := resolver.NextApprover(context.Background(), chain, Scope{CompanyID: "acme", RegionID: "r2"}, nil)
	if !apperrors.HasCode(err, apperrors.CodeNoApproverAvailable) {
		t.Fatalf("expected NO_APPROVER_AVAILABLE for unstaffed region, got %v", err)
	}

	next, err := resolver.NextApprover(context.Background(), chain, Scope{CompanyID: "acme", RegionID: "r1"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if next.UserID != "am-1" {
		t.Fatalf("resolved %s, want am-1", next.UserID)
	}
}

func TestIsValidApprover(t *testing.T) {
	amount := domain.Money(100_000)
	ticket := &domain.Ticket{
		ID:              "t-1",
		Status:          domain.TicketStatusEstimationApprovalNeeded,
		OwnerUserID:     "am-1",
		EstimatedAmount: &amount,
	}

	if !IsValidApprover(ticket, "am-1", domain.RoleAreaManager) {
		t.Fatal("owner with chain role should be valid")
	}
	if IsValidApprover(ticket, "sd-1", domain.RoleSalesDirector) {
		t.Fatal("non-owner must not be valid even with a higher role")
	}
	if IsValidApprover(ticket, "am-1", domain.RoleBoardOfDirectors) {
		t.Fatal("role outside the amount-derived chain must not be valid")
	}

	noEstimation := &domain.Ticket{ID: "t-2", Status: domain.TicketStatusEstimationApprovalNeeded, OwnerUserID: "am-1"}
	if IsValidApprover(noEstimation, "am-1", domain.RoleAreaManager) {
		t.Fatal("ticket without estimation must not accept decisions")
	}
}
