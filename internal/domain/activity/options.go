package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	Scope        string
	RecordID     *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
