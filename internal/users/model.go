package users

import "time"

// Plan names and their daily parse limits.
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Plan         string    `json:"plan"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ValidPlan reports whether the plan name is one we bill for.
func ValidPlan(plan string) bool {
	switch plan {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	default:
		return false
	}
}
