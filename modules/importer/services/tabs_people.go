package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/coerce"
)

var employeeCostsSchema = newTabSchema(2, 3, "name", "title", "salary")

var payrollSchema = newTabSchema(2, 3,
	"name", "title", "hourly", "-", "annual", "-", "net", "-", "employer_taxes", "-", "-", "status",
)

var payrollCalendarSchema = newTabSchema(3, 4, "-", "pay_date", "-", "-", "-", "-", "notes")

var crewAllocationSchema = newTabSchema(4, 5, "resource", "role")

var vendorScorecardSchema = newTabSchema(4, 5,
	"name", "trade", "phone", "email", "insurance", "-",
	"quality", "timeliness", "communication", "price",
	"-", "-", "-", "-", "-", "-", "-", "notes",
)

var apAgingSchema = newTabSchema(2, 3, "vendor", "amount", "bucket", "priority", "-", "risk")

var bidPipelineSchema = newTabSchema(4, 5,
	"name", "client", "salesperson", "-", "-", "value", "status", "-", "probability",
	"-", "-", "-", "-", "-", "-", "-", "notes",
)

var dataLogSchema = newTabSchema(3, 4, "name", "type", "tabs", "data", "records", "-", "status")

const (
	payrollYear          = 2025
	payrollStatusPlanned = "scheduled"
	crewWeekHours        = 40
	minPhoneDigits       = 10

	victoryCrossingsMinRows = 5
)

// The pro forma tab has no row data worth keeping; it stands for one bid.
var victoryCrossingsBid = models.BidOpportunity{
	OpportunityName: "Victory Crossings 64-Unit Development",
	ClientName:      "SECG (Internal Development)",
	Salesperson:     "Samuel Carson",
	ProjectType:     "Multifamily",
	EstimatedValue:  decimal.NewFromInt(9256000),
	Status:          models.BidPursuing,
	Notes:           "64-unit development pro forma, imported from VICTORY CROSSINGS tab",
}

// splitName splits "Jane Q Doe" into "Jane" and "Q Doe".
func splitName(name string) (first, last string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	first = fields[0]
	last = strings.TrimSpace(strings.TrimSpace(name)[len(first):])
	return first, last
}

type employeeCostsTab struct{ *tabEnv }

func (t *employeeCostsTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := employeeCostsSchema
	for _, row := range s.data(rows) {
		name := s.text(row, "name")
		if name == "" || strings.HasPrefix(name, "TOTAL") {
			t.skipped()
			continue
		}
		first, last := splitName(name)
		title := s.text(row, "title")
		salary := nullDecimal(coerce.Currency(s.cell(row, "salary")), true)
		existing, err := findOne[models.Employee](ctx, map[string]any{"first_name": first, "last_name": last})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &models.Employee{
				FirstName: first,
				LastName:  last,
				Role:      title,
				Salary:    salary,
				IsActive:  true,
			}); err != nil {
				return err
			}
			t.created()
			continue
		}
		cs := changeSet{}
		cs.str("role", &existing.Role, title)
		cs.nullDec("salary", &existing.Salary, salary)
		if err := t.saveChanges(ctx, "employees", existing.ID, existing, cs); err != nil {
			return err
		}
	}
	return nil
}

type payrollTab struct{ *tabEnv }

func (t *payrollTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := payrollSchema
	for _, row := range s.data(rows) {
		name := s.text(row, "name")
		if name == "" || strings.HasPrefix(name, "TOTAL") {
			t.skipped()
			continue
		}
		first, last := splitName(name)
		title := s.text(row, "title")
		hourly := coerce.Currency(s.cell(row, "hourly"))
		annual := coerce.Currency(s.cell(row, "annual"))

		emp, err := findOne[models.Employee](ctx, map[string]any{"first_name": first, "last_name": last})
		if err != nil {
			return err
		}
		if emp == nil {
			emp = &models.Employee{
				FirstName:  first,
				LastName:   last,
				Role:       title,
				HourlyRate: nullDecimal(hourly, hourly.IsPositive()),
				Salary:     nullDecimal(annual, annual.IsPositive()),
				IsActive:   true,
			}
			if err := insert(ctx, emp); err != nil {
				return err
			}
			t.created()
		} else {
			cs := changeSet{}
			if hourly.IsPositive() {
				cs.nullDec("hourly_rate", &emp.HourlyRate, nullDecimal(hourly, true))
			}
			if annual.IsPositive() {
				cs.nullDec("salary", &emp.Salary, nullDecimal(annual, true))
			}
			if title != "" {
				cs.str("role", &emp.Role, title)
			}
			if err := t.saveChanges(ctx, "employees", emp.ID, emp, cs); err != nil {
				return err
			}
		}

		if !annual.IsPositive() {
			continue
		}
		start := time.Date(payrollYear, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(payrollYear, time.December, 31, 0, 0, 0, 0, time.UTC)
		entry, err := findOne[models.PayrollEntry](ctx, map[string]any{
			"employee_id":      emp.ID,
			"pay_period_start": start,
			"pay_period_end":   end,
		})
		if err != nil {
			return err
		}
		if entry != nil {
			continue
		}
		employerTaxes := coerce.Currency(s.cell(row, "employer_taxes"))
		if err := insert(ctx, &models.PayrollEntry{
			EmployeeID:    emp.ID,
			PeriodStart:   start,
			PeriodEnd:     end,
			GrossPay:      annual,
			NetPay:        coerce.Currency(s.cell(row, "net")),
			EmployerTaxes: employerTaxes,
			TotalCost:     annual.Add(employerTaxes),
			Notes:         s.text(row, "status"),
		}); err != nil {
			return err
		}
	}
	return nil
}

type payrollCalendarTab struct{ *tabEnv }

func (t *payrollCalendarTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := payrollCalendarSchema
	for _, row := range s.data(rows) {
		payDate := s.date(row, "pay_date")
		if payDate == nil {
			t.skipped()
			continue
		}
		existing, err := findOne[models.PayrollCalendar](ctx, map[string]any{"pay_date": *payDate})
		if err != nil {
			return err
		}
		if existing != nil {
			t.skipped()
			continue
		}
		if err := insert(ctx, &models.PayrollCalendar{
			PayDate:     *payDate,
			PeriodStart: *payDate,
			PeriodEnd:   *payDate,
			Status:      payrollStatusPlanned,
			Notes:       s.text(row, "notes"),
		}); err != nil {
			return err
		}
		t.created()
	}
	return nil
}

type crewAllocationTab struct{ *tabEnv }

func (t *crewAllocationTab) weekDates(header coerce.Row) map[int]time.Time {
	weeks := make(map[int]time.Time)
	for i := firstWeekCol; i <= lastWeekCol && i < len(header); i++ {
		cell := coerce.Cell(header, i)
		if d, ok := cell.(time.Time); ok {
			weeks[i] = coerce.DateValue(d)
			continue
		}
		if d := weekHeaderDate(coerce.Trimmed(cell), t.year); d != nil {
			weeks[i] = *d
		}
	}
	return weeks
}

func (t *crewAllocationTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := crewAllocationSchema
	data := s.data(rows)
	if data == nil {
		return nil
	}
	weeks := t.weekDates(rows[3])
	for _, row := range data {
		resource := s.text(row, "resource")
		if resource == "" || strings.HasPrefix(resource, "TOTAL") {
			continue
		}
		role := s.text(row, "role")
		first, _ := splitName(resource)
		emp, err := findOne[models.Employee](ctx, map[string]any{"first_name": first})
		if err != nil {
			return err
		}
		var employeeID *uint
		if emp != nil {
			employeeID = idPtr(emp.ID)
		}
		for col := firstWeekCol; col <= lastWeekCol; col++ {
			week, ok := weeks[col]
			code := coerce.Text(coerce.Cell(row, col), coerce.DefaultTextLen)
			if !ok || code == "" {
				continue
			}
			projectID, err := t.resolver.Project(ctx, code, code)
			if err != nil {
				return err
			}
			alloc := models.CrewAllocation{
				ResourceName:   resource,
				ProjectID:      projectID,
				WeekStarting:   week,
				EmployeeID:     employeeID,
				RoleOnProject:  role,
				HoursAllocated: decimal.NewFromInt(crewWeekHours),
			}
			existing, err := findOne[models.CrewAllocation](ctx, map[string]any{
				"resource_name": resource,
				"project_id":    projectID,
				"week_starting": week,
			})
			if err != nil {
				return err
			}
			if existing == nil {
				if err := insert(ctx, &alloc); err != nil {
					return err
				}
				t.created()
				continue
			}
			cs := changeSet{}
			cs.uintPtr("employee_id", &existing.EmployeeID, alloc.EmployeeID)
			cs.str("role_on_project", &existing.RoleOnProject, alloc.RoleOnProject)
			cs.dec("hours_allocated", &existing.HoursAllocated, alloc.HoursAllocated)
			if err := t.saveChanges(ctx, "crew_allocations", existing.ID, existing, cs); err != nil {
				return err
			}
		}
	}
	return nil
}

type vendorScorecardTab struct{ *tabEnv }

// contactFields pulls a phone and email out of two loosely filled columns.
// Numeric phone cells lose their ".0" suffix; a phone typed into the email
// column is used when the phone column had none.
func contactFields(phoneCell, emailCell any) (phone, email string) {
	if phoneCell != nil {
		if p := strings.TrimSuffix(coerce.Trimmed(phoneCell), ".0"); len(p) >= minPhoneDigits {
			phone = p
		}
	}
	if emailCell != nil {
		e := strings.TrimSuffix(coerce.Trimmed(emailCell), ".0")
		switch {
		case strings.Contains(e, "@"):
			email = e
		case len(e) >= minPhoneDigits && phone == "":
			phone = e
		}
	}
	return phone, email
}

func (t *vendorScorecardTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := vendorScorecardSchema
	for _, row := range s.data(rows) {
		name := s.text(row, "name")
		if name == "" || strings.HasPrefix(name, "TOTAL") {
			t.skipped()
			continue
		}
		phone, email := contactFields(s.cell(row, "phone"), s.cell(row, "email"))
		in := models.Vendor{
			Name:               name,
			Trade:              s.text(row, "trade"),
			Phone:              coerce.Text(phone, 50),
			Email:              email,
			InsuranceExpiry:    s.date(row, "insurance"),
			ScoreQuality:       intPtrOrNil(coerce.Int(s.cell(row, "quality"))),
			ScoreTimeliness:    intPtrOrNil(coerce.Int(s.cell(row, "timeliness"))),
			ScoreCommunication: intPtrOrNil(coerce.Int(s.cell(row, "communication"))),
			ScorePrice:         intPtrOrNil(coerce.Int(s.cell(row, "price"))),
			Notes:              s.textN(row, "notes", 2000),
		}
		existing, err := findOne[models.Vendor](ctx, map[string]any{"name": name})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &in); err != nil {
				return err
			}
			t.created()
			continue
		}
		cs := changeSet{}
		cs.str("trade", &existing.Trade, in.Trade)
		if in.Phone != "" {
			cs.str("phone", &existing.Phone, in.Phone)
		}
		if in.Email != "" {
			cs.str("email", &existing.Email, in.Email)
		}
		cs.date("insurance_expiry", &existing.InsuranceExpiry, in.InsuranceExpiry)
		cs.intPtr("score_quality", &existing.ScoreQuality, in.ScoreQuality)
		cs.intPtr("score_timeliness", &existing.ScoreTimeliness, in.ScoreTimeliness)
		cs.intPtr("score_communication", &existing.ScoreCommunication, in.ScoreCommunication)
		cs.intPtr("score_price", &existing.ScorePrice, in.ScorePrice)
		cs.str("notes", &existing.Notes, in.Notes)
		if err := t.saveChanges(ctx, "vendors", existing.ID, existing, cs); err != nil {
			return err
		}
	}
	return nil
}

type apAgingTab struct{ *tabEnv }

func (t *apAgingTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := apAgingSchema
	for _, row := range s.data(rows) {
		name := s.text(row, "vendor")
		if name == "" || strings.HasPrefix(name, "TOTAL") {
			t.skipped()
			continue
		}
		balance := nullDecimal(coerce.Currency(s.cell(row, "amount")), true)
		bucket := s.textN(row, "bucket", 50)
		priority := s.textN(row, "priority", 50)
		risk := s.textN(row, "risk", 50)

		existing, err := findOne[models.Vendor](ctx, map[string]any{"name": name})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &models.Vendor{
				Name:       name,
				APBalance:  balance,
				APBucket:   bucket,
				APPriority: priority,
				APRisk:     risk,
			}); err != nil {
				return err
			}
			t.created()
			continue
		}
		cs := changeSet{}
		cs.nullDec("ap_balance", &existing.APBalance, balance)
		cs.str("ap_bucket", &existing.APBucket, bucket)
		cs.str("ap_priority", &existing.APPriority, priority)
		cs.str("ap_risk", &existing.APRisk, risk)
		if err := t.saveChanges(ctx, "vendors", existing.ID, existing, cs); err != nil {
			return err
		}
	}
	return nil
}

type bidPipelineTab struct{ *tabEnv }

func (t *bidPipelineTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := bidPipelineSchema
	for _, row := range s.data(rows) {
		name := s.text(row, "name")
		if name == "" || strings.HasPrefix(name, "TOTAL") {
			t.skipped()
			continue
		}
		bid := models.BidOpportunity{
			OpportunityName: name,
			ClientName:      s.text(row, "client"),
			Salesperson:     s.text(row, "salesperson"),
			EstimatedValue:  coerce.Currency(s.cell(row, "value")),
			Status:          bidStatuses.Classify(s.text(row, "status")),
			Notes:           s.text(row, "notes"),
		}
		if _, ok := fraction(s.cell(row, "probability")); ok {
			bid.Probability = nullDecimal(percentOf(s.cell(row, "probability")), true)
		}
		if err := t.insertBid(ctx, &bid); err != nil {
			return err
		}
	}
	return nil
}

// insertBid creates bid unless an opportunity of the same name exists.
func (e *tabEnv) insertBid(ctx context.Context, bid *models.BidOpportunity) error {
	existing, err := findOne[models.BidOpportunity](ctx, map[string]any{"opportunity_name": bid.OpportunityName})
	if err != nil {
		return err
	}
	if existing != nil {
		e.skipped()
		return nil
	}
	if err := insert(ctx, bid); err != nil {
		return err
	}
	e.created()
	return nil
}

type victoryCrossingsTab struct{ *tabEnv }

func (t *victoryCrossingsTab) Parse(ctx context.Context, rows []coerce.Row) error {
	if len(rows) < victoryCrossingsMinRows {
		return nil
	}
	bid := victoryCrossingsBid
	return t.insertBid(ctx, &bid)
}

type dataLogTab struct{ *tabEnv }

func (t *dataLogTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := dataLogSchema
	for _, row := range s.data(rows) {
		name := s.text(row, "name")
		if name == "" {
			continue
		}
		existing, err := findOne[models.DataSource](ctx, map[string]any{"name": name})
		if err != nil {
			return err
		}
		if existing != nil {
			t.skipped()
			continue
		}
		if err := insert(ctx, &models.DataSource{
			Name:        name,
			SourceType:  s.text(row, "type"),
			Status:      s.text(row, "status"),
			RecordCount: coerce.Int(s.cell(row, "records")),
			Notes:       fmt.Sprintf("Tabs: %s | Data: %s", s.raw(row, "tabs"), s.raw(row, "data")),
		}); err != nil {
			return err
		}
		t.created()
	}
	return nil
}
