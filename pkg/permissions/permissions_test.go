package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tayylorngo/t-testing-sub000/models"
)

func sessionWith(ownerID int, collabs ...models.Collaborator) *models.Session {
	return &models.Session{ID: 1, OwnerID: ownerID, Collaborators: collabs}
}

func collab(userID int, edit, manage bool) models.Collaborator {
	return models.Collaborator{
		UserID:      userID,
		Permissions: models.Permissions{View: true, Edit: edit, Manage: manage},
	}
}

func TestOwnerHasEverything(t *testing.T) {
	s := sessionWith(1)
	assert.True(t, CanView(s, 1))
	assert.True(t, CanEdit(s, 1))
	assert.True(t, CanManage(s, 1))
}

func TestStrangerHasNothing(t *testing.T) {
	s := sessionWith(1, collab(2, true, true))
	assert.False(t, CanView(s, 99))
	assert.False(t, CanEdit(s, 99))
	assert.False(t, CanManage(s, 99))
}

func TestCollaboratorCapabilities(t *testing.T) {
	cases := []struct {
		name                 string
		edit, manage         bool
		wantEdit, wantManage bool
	}{
		{"view only", false, false, false, false},
		{"edit", true, false, true, false},
		{"manage implies edit", false, true, true, true},
		{"edit and manage", true, true, true, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := sessionWith(1, collab(2, c.edit, c.manage))
			assert.True(t, CanView(s, 2), "any collaborator record implies view")
			assert.Equal(t, c.wantEdit, CanEdit(s, 2))
			assert.Equal(t, c.wantManage, CanManage(s, 2))
		})
	}
}

// Capability implications hold for every combination of flags.
func TestCapabilityImplications(t *testing.T) {
	for _, edit := range []bool{false, true} {
		for _, manage := range []bool{false, true} {
			s := sessionWith(1, collab(2, edit, manage))
			for _, uid := range []int{1, 2, 3} {
				if CanManage(s, uid) {
					assert.True(t, CanEdit(s, uid), "manage implies edit (uid=%d)", uid)
				}
				if CanEdit(s, uid) {
					assert.True(t, CanView(s, uid), "edit implies view (uid=%d)", uid)
				}
			}
		}
	}
}

func TestNilSession(t *testing.T) {
	assert.False(t, CanView(nil, 1))
	assert.False(t, CanEdit(nil, 1))
	assert.False(t, CanManage(nil, 1))
}

func TestNormalizeStripsGrantsForNonOwner(t *testing.T) {
	requested := models.Permissions{View: true, Edit: true, Manage: true}
	got := Normalize(requested, false)
	assert.Equal(t, models.Permissions{View: true}, got)
}

func TestNormalizeKeepsOwnerGrants(t *testing.T) {
	requested := models.Permissions{Edit: true, Manage: false}
	got := Normalize(requested, true)
	assert.Equal(t, models.Permissions{View: true, Edit: true}, got)
}

// A request to revoke view is ignored, never honored.
func TestNormalizeViewAlwaysTrue(t *testing.T) {
	got := Normalize(models.Permissions{View: false, Edit: true}, true)
	assert.True(t, got.View)
}
