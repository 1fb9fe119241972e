package catalog

import "time"

// Category groups courses.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Course is a catalog entry.
type Course struct {
	ID                    int64      `json:"id"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	Keywords              string     `json:"keywords"`
	Difficulty            string     `json:"difficulty"`
	StartDate             *time.Time `json:"startDate,omitempty"`
	EndDate               *time.Time `json:"endDate,omitempty"`
	ECTS                  *float64   `json:"ects,omitempty"`
	HoursPerWeek          int        `json:"hoursPerWeek"`
	RelatedCertifications string     `json:"relatedCertifications"`
	IsVisible             bool       `json:"isVisible"`
	ImagePath             *string    `json:"imagePath,omitempty"`
	Category              *Category  `json:"category,omitempty"`
	Providers             []Provider `json:"providers"`
}

// Provider sells a course. Discount is a percentage of Price.
type Provider struct {
	ID                     int64   `json:"id"`
	Name                   string  `json:"name"`
	Price                  float64 `json:"price"`
	Discount               float64 `json:"discount"`
	Currency               string  `json:"currency"`
	DiscountedPrice        float64 `json:"discountedPrice"`
	DisplayPrice           string  `json:"displayPrice,omitempty"`
	DisplayDiscountedPrice string  `json:"displayDiscountedPrice,omitempty"`
}

// ImageURLPrefix is the public path course images are served under.
const ImageURLPrefix = "/course-images/"
