package auth

// Authorizer answers admin checks for the configured admin set. Regular
// usage is open to everyone, so there is no user allowlist.
type Authorizer struct {
	adminIDs map[int64]bool
}

func NewAuthorizer(admins []int64) *Authorizer {
	adminMap := make(map[int64]bool, len(admins))
	for _, id := range admins {
		adminMap[id] = true
	}
	return &Authorizer{adminIDs: adminMap}
}

func (a *Authorizer) IsAdmin(userID int64) bool {
	_, ok := a.adminIDs[userID]
	return ok
}

// AdminIDs returns the configured admin ids, for error notifications.
func (a *Authorizer) AdminIDs() []int64 {
	ids := make([]int64, 0, len(a.adminIDs))
	for id := range a.adminIDs {
		ids = append(ids, id)
	}
	return ids
}
