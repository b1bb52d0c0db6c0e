package access

import "github.com/angelmondragon/bizledger-backend/pkg/enums"

// Hierarchy ranks business roles. The zero value knows no roles and denies everything.
// Levels are fixed at construction; there is no way to mutate them afterwards.
type Hierarchy struct {
	levels map[enums.MemberRole]int
}

// NewHierarchy ranks roles from highest to lowest: the first role gets len(roles).
func NewHierarchy(highestFirst ...enums.MemberRole) Hierarchy {
	levels := make(map[enums.MemberRole]int, len(highestFirst))
	for i, role := range highestFirst {
		if _, dup := levels[role]; dup {
			continue
		}
		levels[role] = len(highestFirst) - i
	}
	return Hierarchy{levels: levels}
}

// DefaultHierarchy is owner 5, admin 4, manager 3, accountant 2, employee 1.
func DefaultHierarchy() Hierarchy {
	return NewHierarchy(
		enums.MemberRoleOwner,
		enums.MemberRoleAdmin,
		enums.MemberRoleManager,
		enums.MemberRoleAccountant,
		enums.MemberRoleEmployee,
	)
}

// Level returns the rank of role, or 0 when the role is unknown.
func (h Hierarchy) Level(role enums.MemberRole) int {
	return h.levels[role]
}

// HasAtLeastRole reports whether actual ranks at or above required. Unknown roles on
// either side never satisfy the check.
func (h Hierarchy) HasAtLeastRole(actual, required enums.MemberRole) bool {
	have, want := h.Level(actual), h.Level(required)
	if have == 0 || want == 0 {
		return false
	}
	return have >= want
}

// Outranks reports whether actual is strictly above other.
func (h Hierarchy) Outranks(actual, other enums.MemberRole) bool {
	have := h.Level(actual)
	return have > 0 && have > h.Level(other)
}
