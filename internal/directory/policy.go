package directory

import "github.com/Edura-Academy/edura-sub002/internal/userdir"

// Conversation-creation policy, centralized so every entry point enforces
// the same rules. Guardians may only initiate with teaching staff or the
// front office; front office and platform admins may initiate with anyone.
// Pairs are symmetric in storage but the rule is checked from the
// requester's side.
var directPairs = map[string]map[string]bool{
	userdir.RoleGuardian: {
		userdir.RoleTeacher: true,
		userdir.RoleOfficer: true,
	},
	userdir.RoleTeacher: {
		userdir.RoleGuardian: true,
		userdir.RoleTeacher:  true,
		userdir.RoleOfficer:  true,
		userdir.RoleAdmin:    true,
	},
	userdir.RoleOfficer: {
		userdir.RoleGuardian: true,
		userdir.RoleTeacher:  true,
		userdir.RoleOfficer:  true,
		userdir.RoleAdmin:    true,
	},
	userdir.RoleAdmin: {
		userdir.RoleGuardian: true,
		userdir.RoleTeacher:  true,
		userdir.RoleOfficer:  true,
		userdir.RoleAdmin:    true,
	},
}

// CanStartDirect reports whether requesterRole may open a direct
// conversation with targetRole. Unknown roles are denied.
func CanStartDirect(requesterRole, targetRole string) bool {
	allowed, ok := directPairs[requesterRole]
	if !ok {
		return false
	}
	return allowed[targetRole]
}

// CanCreateGroup reports whether the role may create group conversations.
// Guardians cannot; staff roles can.
func CanCreateGroup(role string) bool {
	switch role {
	case userdir.RoleTeacher, userdir.RoleOfficer, userdir.RoleAdmin:
		return true
	default:
		return false
	}
}
