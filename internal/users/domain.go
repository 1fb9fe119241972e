package users

import "time"

// User represents a user account as exposed to clients.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Favorite links a user to a saved course.
type Favorite struct {
	ID          int64  `json:"id"`
	CourseID    int64  `json:"courseId"`
	CourseTitle string `json:"courseTitle"`
}
