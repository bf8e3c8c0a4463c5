package model

// TaskFilter holds the filtering options for listing tasks.
type TaskFilter struct {
	ListID   string
	Status   []Status
	Priority *int
	ParentID string
	Tags     []string
	Search   string // substring match on title/description
	Sort     string // "created_at", "updated_at", "priority", "title"
	Limit    int
	Offset   int
}

// ListFilter holds the filtering options for listing task lists.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}
