package employee

import "time"

// Status は雇用形態の状態を表します。
type Status string

const (
	StatusProbation  Status = "Probation"
	StatusPermanent  Status = "Permanent"
	StatusContract   Status = "Contract"
	StatusInternship Status = "Internship"
	StatusPartTime   Status = "Part-time"
)

// ProbationWindow は試用期間の長さです。
const ProbationWindow = 90 * 24 * time.Hour

// Employee は社員レコードです。
type Employee struct {
	ID               string
	EmployeeID       string
	UserID           string
	FirstName        string
	MiddleName       string
	LastName         string
	EmploymentStatus EmploymentStatus
	Profile          Profile
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EmploymentStatus は雇用状態と試用期間の情報です。
type EmploymentStatus struct {
	Status           Status
	StartDate        *time.Time
	ProbationEndDate *time.Time
	AutoUpdated      bool
}

// FullName は表示用の氏名を返します。
func (e *Employee) FullName() string {
	if e.MiddleName == "" {
		return e.FirstName + " " + e.LastName
	}
	return e.FirstName + " " + e.MiddleName + " " + e.LastName
}

// Profile は社員に付随する可変構造の属性です。
// 永続化時は JSON ドキュメントとして保存されます。
type Profile struct {
	Email             string              `json:"email,omitempty" validate:"omitempty,email"`
	Phone             string              `json:"phone,omitempty" validate:"omitempty,max=32"`
	DateOfBirth       *time.Time          `json:"dateOfBirth,omitempty"`
	Gender            string              `json:"gender,omitempty" validate:"omitempty,max=32"`
	MaritalStatus     string              `json:"maritalStatus,omitempty" validate:"omitempty,max=32"`
	Nationality       string              `json:"nationality,omitempty" validate:"omitempty,max=64"`
	Address           *Address            `json:"address,omitempty"`
	JobInfo           JobInfo             `json:"jobInfo"`
	EmergencyContacts []EmergencyContact  `json:"emergencyContacts,omitempty" validate:"dive"`
	Dependents        []Dependent         `json:"dependents,omitempty" validate:"dive"`
	Education         []Education         `json:"education,omitempty" validate:"dive"`
	EmploymentHistory []EmploymentHistory `json:"employmentHistory,omitempty" validate:"dive"`
	Attachments       []Attachment        `json:"attachments,omitempty" validate:"dive"`
}

// Address は住所です。
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty" validate:"omitempty,max=16"`
	Country string `json:"country,omitempty"`
}

// JobInfo は職務情報です。
type JobInfo struct {
	Designation      string     `json:"designation,omitempty"`
	Department       string     `json:"department,omitempty"`
	ReportingManager string     `json:"reportingManager,omitempty"`
	EmploymentType   string     `json:"employmentType,omitempty"`
	WorkLocation     string     `json:"workLocation,omitempty"`
	JoiningDate      *time.Time `json:"joiningDate,omitempty"`
}

// EmergencyContact は緊急連絡先です。
type EmergencyContact struct {
	Name     string `json:"name" validate:"required"`
	Relation string `json:"relation" validate:"required"`
	Phone    string `json:"phone" validate:"required,max=32"`
}

// Dependent は扶養家族です。
type Dependent struct {
	Name        string     `json:"name" validate:"required"`
	Relation    string     `json:"relation" validate:"required"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
}

// Education は学歴です。
type Education struct {
	Level     string `json:"level" validate:"required"`
	Institute string `json:"institute" validate:"required"`
	Year      string `json:"year,omitempty"`
	Score     string `json:"score,omitempty"`
}

// EmploymentHistory は職歴です。
type EmploymentHistory struct {
	CompanyName      string     `json:"companyName" validate:"required"`
	JobTitle         string     `json:"jobTitle" validate:"required"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	ReasonForLeaving string     `json:"reasonForLeaving,omitempty"`
}

// Attachment は添付書類のメタデータです。
type Attachment struct {
	FileType   string    `json:"fileType" validate:"required"`
	FileName   string    `json:"fileName" validate:"required"`
	FilePath   string    `json:"filePath" validate:"required"`
	UploadDate time.Time `json:"uploadDate"`
}
