package bazaar

// SellerRole is the role a seller takes at the bazaar.
type SellerRole string

const (
	SellerRoleStandard SellerRole = "standard"
	SellerRoleHelper   SellerRole = "helper"
	SellerRoleTeamLead SellerRole = "team_lead"
	SellerRoleOrga     SellerRole = "orga"
)

var maxArticlesByRole = map[SellerRole]int{
	SellerRoleStandard: 24,
	SellerRoleHelper:   36,
	SellerRoleTeamLead: 48,
	SellerRoleOrga:     60,
}

// ParseSellerRole validates s. The empty string maps to standard.
func ParseSellerRole(s string) (SellerRole, error) {
	if s == "" {
		return SellerRoleStandard, nil
	}
	r := SellerRole(s)
	if _, ok := maxArticlesByRole[r]; !ok {
		return "", ErrInvalidRole.WithDetail(s)
	}
	return r, nil
}

// MaxArticles is the default article quota of the role.
func (r SellerRole) MaxArticles() int {
	if n, ok := maxArticlesByRole[r]; ok {
		return n
	}
	return maxArticlesByRole[SellerRoleStandard]
}

// CanCreateBillings is the default checkout permission of the role.
func (r SellerRole) CanCreateBillings() bool {
	return r == SellerRoleOrga
}

// UserRole is the account role used for route authorization.
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleManager UserRole = "manager"
	UserRoleSeller  UserRole = "seller"
	UserRoleBilling UserRole = "billing"
)

// ParseUserRole validates s.
func ParseUserRole(s string) (UserRole, error) {
	switch r := UserRole(s); r {
	case UserRoleAdmin, UserRoleManager, UserRoleSeller, UserRoleBilling:
		return r, nil
	}
	return "", ErrInvalidRole.WithDetail(s)
}

// IsStaff reports whether the role manages events.
func (r UserRole) IsStaff() bool {
	return r == UserRoleAdmin || r == UserRoleManager
}
