package orders

import "time"

// DateLayout is the wire format of order dates.
const DateLayout = "2006-01-02"

// Order is a purchase of a course from one of its providers. Price and
// Discount are copied from the provider when the order is placed.
type Order struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Username     string    `json:"username"`
	CourseID     int64     `json:"courseId"`
	CourseTitle  string    `json:"courseTitle"`
	ProviderID   int64     `json:"providerId"`
	ProviderName string    `json:"providerName"`
	OrderDate    time.Time `json:"-"`
	Date         string    `json:"orderDate"`
	Price        float64   `json:"price"`
	Discount     float64   `json:"discount"`
	Currency     string    `json:"currency"`
	Total        float64   `json:"total"`
	DisplayTotal string    `json:"displayTotal,omitempty"`
}

// PlaceInput is the body of an order request.
type PlaceInput struct {
	CourseID   int64  `json:"courseId" validate:"required,gt=0"`
	ProviderID int64  `json:"providerId" validate:"required,gt=0"`
	OrderDate  string `json:"orderDate" validate:"omitempty,datetime=2006-01-02"`
}
