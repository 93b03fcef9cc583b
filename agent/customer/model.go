package customer

import (
	"time"

	"github.com/uptrace/bun"
)

// Tier is the loyalty tier used by the offer tables.
const (
	TierNew     = "new"
	TierRegular = "regular"
	TierPremium = "premium"
)

// Customer is a subscriber profile as stored in the customers table.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	CustomerID          string  `bun:"customer_id,pk" json:"customer_id"`
	Name                string  `bun:"name,notnull" json:"name"`
	Email               string  `bun:"email,notnull,unique" json:"email"`
	Phone               string  `bun:"phone" json:"phone"`
	PlanType            string  `bun:"plan_type" json:"plan_type"`
	MonthlyCharge       float64 `bun:"monthly_charge" json:"monthly_charge"`
	SignupDate          string  `bun:"signup_date" json:"signup_date"`
	Status              string  `bun:"status" json:"status"`
	TotalSpent          float64 `bun:"total_spent" json:"total_spent"`
	SupportTicketsCount int     `bun:"support_tickets_count" json:"support_tickets_count"`
	AccountHealthScore  int     `bun:"account_health_score" json:"account_health_score"`
	TenureMonths        int     `bun:"tenure_months" json:"tenure_months"`
	Tier                string  `bun:"tier,notnull" json:"tier"`
	Device              string  `bun:"device" json:"device"`
	PurchaseDate        string  `bun:"purchase_date" json:"purchase_date"`
}

// RetentionEvent records the outcome the processor logged for a conversation.
type RetentionEvent struct {
	bun.BaseModel `bun:"table:retention_events,alias:re"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	CustomerID string    `bun:"customer_id,notnull" json:"customer_id"`
	Action     string    `bun:"action,notnull" json:"action"`
	Details    string    `bun:"details" json:"details"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
