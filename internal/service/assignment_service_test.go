package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feedback-hub/helpdesk/internal/domain"
)

func newBalancerFixture() (*AssignmentService, *fakeAppRepo, *fakeUserRepo, *fakeTicketRepo) {
	apps := newFakeAppRepo()
	users := newFakeUserRepo()
	tickets := newFakeTicketRepo()
	balancer := NewAssignmentService(apps, users, tickets, zap.NewNop())
	return balancer, apps, users, tickets
}

func TestChooseAssigneePicksLeastLoaded(t *testing.T) {
	balancer, apps, users, tickets := newBalancerFixture()
	apps.addApp("app-1")

	busy := users.addUser("busy", domain.UserRoleAdmin)
	idle := users.addUser("idle", domain.UserRoleAdmin)
	apps.adminIDs["app-1"] = []string{busy.ID, idle.ID}

	for i := 0; i < 3; i++ {
		tickets.seedAssigned(busy.ID)
	}
	tickets.seedAssigned(idle.ID)

	chosen, err := balancer.ChooseAssignee(context.Background(), "app-1")
	require.NoError(t, err)
	require.NotNil(t, chosen)
	assert.Equal(t, idle.ID, *chosen)
}

func TestChooseAssigneeIgnoresInactiveTickets(t *testing.T) {
	balancer, apps, users, tickets := newBalancerFixture()
	apps.addApp("app-1")

	a := users.addUser("a", domain.UserRoleAdmin)
	b := users.addUser("b", domain.UserRoleAdmin)
	apps.adminIDs["app-1"] = []string{a.ID, b.ID}

	// Resolved and closed tickets do not count toward workload.
	tickets.seedAssigned(a.ID)
	for _, ticket := range tickets.tickets {
		ticket.Status = domain.TicketStatusResolved
	}
	tickets.seedAssigned(b.ID)

	chosen, err := balancer.ChooseAssignee(context.Background(), "app-1")
	require.NoError(t, err)
	require.NotNil(t, chosen)
	assert.Equal(t, a.ID, *chosen)
}

func TestChooseAssigneeIsDeterministicOnTies(t *testing.T) {
	balancer, apps, users, _ := newBalancerFixture()
	apps.addApp("app-1")

	first := users.addUser("first", domain.UserRoleAdmin)
	second := users.addUser("second", domain.UserRoleAdmin)
	apps.adminIDs["app-1"] = []string{first.ID, second.ID}

	// Equal load: repeated calls must keep returning the same candidate.
	for i := 0; i < 10; i++ {
		chosen, err := balancer.ChooseAssignee(context.Background(), "app-1")
		require.NoError(t, err)
		require.NotNil(t, chosen)
		assert.Equal(t, first.ID, *chosen)
	}
}

func TestChooseAssigneeFallsBackToAllAdmins(t *testing.T) {
	balancer, apps, users, _ := newBalancerFixture()
	apps.addApp("app-1")
	// No admins enrolled for the app.

	users.addUser("reporter", domain.UserRoleUser)
	admin := users.addUser("global-admin", domain.UserRoleSuperAdmin)

	chosen, err := balancer.ChooseAssignee(context.Background(), "app-1")
	require.NoError(t, err)
	require.NotNil(t, chosen)
	assert.Equal(t, admin.ID, *chosen)
}

func TestChooseAssigneeReturnsNilWithoutAdmins(t *testing.T) {
	balancer, apps, users, _ := newBalancerFixture()
	apps.addApp("app-1")
	users.addUser("reporter", domain.UserRoleUser)

	chosen, err := balancer.ChooseAssignee(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Nil(t, chosen)
}
