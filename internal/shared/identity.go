package shared

// Identity describes the authenticated caller of a request.
type Identity struct {
	UserID   string
	Email    string
	FullName string
	IsAdmin  bool
}
