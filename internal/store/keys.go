package store

// Logical document names. Each is an independently read/written JSON value;
// there is no transaction spanning keys.
const (
	KeySchedule             = "class-schedule-data"
	KeyAttendanceRecords    = "attendance-records"
	KeyPracticeTests        = "practice-tests"
	KeyTestResults          = "test-results"
	KeyDocuments            = "pdf-documents"
	KeyCalendarEvents       = "academic-calendar-events"
	KeyNotificationSettings = "notification-settings"
	KeyInAppNotifications   = "in-app-notifications"
	KeyLoggedStudents       = "logged-students"
	KeyDeviceID             = "class-schedule-device-id"
	KeyUserRole             = "user-role"
	KeyCurrentUser          = "current-user"

	// KeySharedSchedulePrefix prefixes local copies of shares created while
	// the mirror was unreachable.
	KeySharedSchedulePrefix = "shared-schedule-"
)
