package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/codex-hrm/internal/core/employee"
	"github.com/ogurasousui/codex-hrm/internal/core/identity"
)

const dateLayout = "2006-01-02"

var (
	errInvalidRequest  = errors.New("invalid request")
	errPayloadTooLarge = errors.New("request payload exceeds the size limit")
)

// employeeFields はリクエスト本文に含まれていたフィールドだけを保持します。
// 作成と部分更新で共通に使います。
type employeeFields struct {
	EmployeeID        *string
	UserID            *string
	FirstName         *string
	MiddleName        *string
	LastName          *string
	EmploymentStatus  *employmentStatusFields
	Email             *string
	Phone             *string
	DateOfBirth       *time.Time
	DateOfBirthSet    bool
	Gender            *string
	MaritalStatus     *string
	Nationality       *string
	Address           *employee.Address
	JobInfo           *employee.JobInfo
	EmergencyContacts *[]employee.EmergencyContact
	Dependents        *[]employee.Dependent
	Education         *[]employee.Education
	EmploymentHistory *[]employee.EmploymentHistory
	Attachments       *[]employee.Attachment
}

type employmentStatusFields struct {
	Status              *string
	StartDate           *time.Time
	StartDateSet        bool
	ProbationEndDate    *time.Time
	ProbationEndDateSet bool
	AutoUpdated         *bool
}

func decodeEmployeeFields(body []byte) (*employeeFields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", errInvalidRequest)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", errInvalidRequest)
	}

	f := &employeeFields{}
	for key, value := range raw {
		var err error
		switch key {
		case "employeeId":
			f.EmployeeID, err = decodeString(value)
		case "userId":
			f.UserID, err = decodeString(value)
		case "firstName":
			f.FirstName, err = decodeString(value)
		case "middleName":
			f.MiddleName, err = decodeString(value)
		case "lastName":
			f.LastName, err = decodeString(value)
		case "employmentStatus":
			f.EmploymentStatus, err = decodeEmploymentStatus(value)
		case "email":
			f.Email, err = decodeString(value)
		case "phone":
			f.Phone, err = decodeString(value)
		case "dateOfBirth":
			f.DateOfBirth, err = decodeTime(value)
			f.DateOfBirthSet = true
		case "gender":
			f.Gender, err = decodeString(value)
		case "maritalStatus":
			f.MaritalStatus, err = decodeString(value)
		case "nationality":
			f.Nationality, err = decodeString(value)
		case "address":
			f.Address, err = decodeInto[employee.Address](value)
		case "jobInfo":
			f.JobInfo, err = decodeInto[employee.JobInfo](value)
		case "emergencyContacts":
			f.EmergencyContacts, err = decodeInto[[]employee.EmergencyContact](value)
		case "dependents":
			f.Dependents, err = decodeInto[[]employee.Dependent](value)
		case "education":
			f.Education, err = decodeInto[[]employee.Education](value)
		case "employmentHistory":
			f.EmploymentHistory, err = decodeInto[[]employee.EmploymentHistory](value)
		case "attachments":
			f.Attachments, err = decodeInto[[]employee.Attachment](value)
		case "id", "_id", "__v", "createdAt", "updatedAt":
			// 読み取り専用のため無視する。
		default:
			err = errors.New("unknown field")
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errInvalidRequest, key, err)
		}
	}
	return f, nil
}

func decodeEmploymentStatus(raw json.RawMessage) (*employmentStatusFields, error) {
	if isNull(raw) {
		return &employmentStatusFields{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.New("must be an object")
	}

	out := &employmentStatusFields{}
	for key, value := range fields {
		var err error
		switch key {
		case "status":
			out.Status, err = decodeString(value)
		case "startDate":
			out.StartDate, err = decodeTime(value)
			out.StartDateSet = true
		case "probationEndDate":
			out.ProbationEndDate, err = decodeTime(value)
			out.ProbationEndDateSet = true
		case "autoUpdated":
			if isNull(value) {
				v := false
				out.AutoUpdated = &v
				continue
			}
			var v bool
			if err = json.Unmarshal(value, &v); err == nil {
				out.AutoUpdated = &v
			}
		default:
			err = errors.New("unknown field")
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %v", key, err)
		}
	}
	return out, nil
}

func (f *employeeFields) toCreateInput(actor identity.Identity) (employee.CreateEmployeeInput, error) {
	in := employee.CreateEmployeeInput{
		Actor:      actor,
		EmployeeID: deref(f.EmployeeID),
		UserID:     deref(f.UserID),
		FirstName:  deref(f.FirstName),
		MiddleName: deref(f.MiddleName),
		LastName:   deref(f.LastName),
		Profile: employee.Profile{
			Email:         deref(f.Email),
			Phone:         deref(f.Phone),
			DateOfBirth:   f.DateOfBirth,
			Gender:        deref(f.Gender),
			MaritalStatus: deref(f.MaritalStatus),
			Nationality:   deref(f.Nationality),
			Address:       f.Address,
		},
	}
	if f.JobInfo != nil {
		in.Profile.JobInfo = *f.JobInfo
	}
	if f.EmergencyContacts != nil {
		in.Profile.EmergencyContacts = *f.EmergencyContacts
	}
	if f.Dependents != nil {
		in.Profile.Dependents = *f.Dependents
	}
	if f.Education != nil {
		in.Profile.Education = *f.Education
	}
	if f.EmploymentHistory != nil {
		in.Profile.EmploymentHistory = *f.EmploymentHistory
	}
	if f.Attachments != nil {
		in.Profile.Attachments = *f.Attachments
	}

	if es := f.EmploymentStatus; es != nil {
		if es.AutoUpdated != nil && *es.AutoUpdated {
			return employee.CreateEmployeeInput{}, fmt.Errorf("%w: employmentStatus.autoUpdated cannot be set on create", errInvalidRequest)
		}
		in.EmploymentStatus = employee.EmploymentStatusInput{
			Status:           employee.Status(deref(es.Status)),
			StartDate:        es.StartDate,
			ProbationEndDate: es.ProbationEndDate,
		}
	}
	return in, nil
}

func (f *employeeFields) toUpdateInput(actor identity.Identity, employeeID string) (employee.UpdateEmployeeInput, error) {
	if f.EmployeeID != nil && strings.TrimSpace(*f.EmployeeID) != employeeID {
		return employee.UpdateEmployeeInput{}, fmt.Errorf("%w: employeeId cannot be changed", errInvalidRequest)
	}

	in := employee.UpdateEmployeeInput{
		Actor:             actor,
		EmployeeID:        employeeID,
		UserID:            f.UserID,
		FirstName:         f.FirstName,
		MiddleName:        f.MiddleName,
		LastName:          f.LastName,
		Email:             f.Email,
		Phone:             f.Phone,
		DateOfBirth:       f.DateOfBirth,
		DateOfBirthSet:    f.DateOfBirthSet,
		Gender:            f.Gender,
		MaritalStatus:     f.MaritalStatus,
		Nationality:       f.Nationality,
		Address:           f.Address,
		JobInfo:           f.JobInfo,
		EmergencyContacts: f.EmergencyContacts,
		Dependents:        f.Dependents,
		Education:         f.Education,
		EmploymentHistory: f.EmploymentHistory,
		Attachments:       f.Attachments,
	}

	if es := f.EmploymentStatus; es != nil {
		update := &employee.EmploymentStatusUpdate{
			StartDate:           es.StartDate,
			StartDateSet:        es.StartDateSet,
			ProbationEndDate:    es.ProbationEndDate,
			ProbationEndDateSet: es.ProbationEndDateSet,
			AutoUpdated:         es.AutoUpdated,
		}
		if es.Status != nil {
			status := employee.Status(*es.Status)
			update.Status = &status
		}
		in.EmploymentStatus = update
	}
	return in, nil
}

func decodeString(raw json.RawMessage) (*string, error) {
	var s string
	if !isNull(raw) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.New("must be a string")
		}
	}
	return &s, nil
}

// decodeTime は null、空文字、YYYY-MM-DD、RFC 3339 を受け付けます。
func decodeTime(raw json.RawMessage) (*time.Time, error) {
	if isNull(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.New("must be a date string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("must be %s or RFC 3339", dateLayout)
	}
	return &t, nil
}

func decodeInto[T any](raw json.RawMessage) (*T, error) {
	var v T
	if isNull(raw) {
		return &v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
