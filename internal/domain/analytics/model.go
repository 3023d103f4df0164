package analytics

// AdminDashboard is the aggregate view behind the admin landing page.
type AdminDashboard struct {
	TotalEmployees   int64        `json:"totalEmployees"`
	TotalDoctors     int64        `json:"totalDoctors"`
	TotalTechnicians int64        `json:"totalTechnicians"`
	ReportsToday     int64        `json:"reportsToday"`
	ReportsThisWeek  int64        `json:"reportsThisWeek"`
	ReportsThisMonth int64        `json:"reportsThisMonth"`
	MonthlyUploads   []MonthCount `json:"monthlyUploads"`
}

// EmployeeDashboard summarizes one employee's slice of the report store.
type EmployeeDashboard struct {
	OwnReports    int64 `json:"ownReports"`
	FamilyReports int64 `json:"familyReports"`
	Dependents    int64 `json:"dependents"`
}

// Overview is the full analytics payload: distributions and trends over the
// live report set.
type Overview struct {
	TodayByType      []TypeCount     `json:"todayByType"`
	TypeDistribution []SubtypeCount  `json:"typeDistribution"`
	MonthlyTrends    []MonthCount    `json:"monthlyTrends"`
	DailyActivity    []DayCount      `json:"dailyActivity"`
	TopUploaders     []UploaderCount `json:"topUploaders"`
}

type MonthCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int64  `json:"count"`
}

type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

type TypeCount struct {
	ReportType string `json:"report_type"`
	Count      int64  `json:"count"`
}

type SubtypeCount struct {
	ReportType    string `json:"report_type"`
	ReportSubtype string `json:"report_subtype"`
	Count         int64  `json:"count"`
}

type UploaderCount struct {
	UploadedBy string `json:"uploaded_by"`
	Name       string `json:"name"`
	Count      int64  `json:"count"`
}
