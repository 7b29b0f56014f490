package hermes

const (
	// SubjectDirectoryUpsertAll carries directory entries pushed by the
	// upstream distance service.
	SubjectDirectoryUpsertAll = "commute.directory.*.upsert"

	StreamName   = "CARPOOL_EVENTS"
	StreamMaxAge = "168h" // 7 days
)

// StreamSubjects are captured by the CARPOOL_EVENTS stream.
var StreamSubjects = []string{"commute.>"}

func SubjectRiderUpdated(riderID string) string    { return "commute.rider." + riderID + ".updated" }
func SubjectNearbyEvaluated(riderID string) string { return "commute.match." + riderID + ".nearby" }
func SubjectRecentEvaluated(riderID string) string { return "commute.match." + riderID + ".recent" }
func SubjectNewUsersDigest(riderID string) string  { return "commute.digest." + riderID + ".new_users" }
func SubjectDirectoryUpsert(riderID string) string { return "commute.directory." + riderID + ".upsert" }
