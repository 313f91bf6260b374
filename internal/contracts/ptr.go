package contracts

// Ptr returns a pointer to v (optional input fields)
func Ptr[T any](v T) *T {
	return &v
}
