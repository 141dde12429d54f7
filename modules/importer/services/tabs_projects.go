package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/coerce"
)

var projectBudgetsSchema = newTabSchema(2, 3,
	"name", "budget", "released", "-", "-", "-", "pm", "notes",
)

var jobCostingSchema = newTabSchema(3, 5,
	"label", "code", "budget", "actual", "-", "-", "committed",
)

var sovDrawBuilderSchema = newTabSchema(4, 5,
	"label", "scheduled", "prior", "balance", "percent", "-", "work", "-", "stored",
)

var drawTrackerSchema = newTabSchema(4, 5,
	"seq", "project", "phase", "amount", "status",
)

var changeOrdersSchema = newTabSchema(4, 5,
	"co_number", "project", "submitted", "description", "requested_by",
	"material", "labor", "sub", "-", "-", "-", "status", "approved", "-", "-",
	"reason", "notes",
)

var lienWaiversSchema = newTabSchema(5, 6,
	"vendor", "project", "draw", "amount", "conditional", "conditional_date",
	"-", "-", "unconditional", "unconditional_date", "through", "-", "risk", "notes",
)

var projectScheduleSchema = newTabSchema(3, 5,
	"label", "planned", "actual", "-", "-", "responsible", "notes",
)

var phaseSyncSchema = newTabSchema(4, 5,
	"project", "phase", "material", "supplier", "status", "start", "-", "-", "end",
)

var (
	retainageReceivableSchema = newTabSchema(0, 6,
		"project", "lender", "-", "billed", "percent", "-", "release",
	)
	retainagePayableSchema = newTabSchema(0, 6,
		"vendor", "project", "-", "paid", "percent", "-", "release",
	)
)

const (
	projectSentinel  = "PROJECT:"
	defaultRetainage = "0.10"
	drawReleased     = "RELEASED"
	stateTennessee   = "TN"
)

// fraction reads a numeric cell only; text such as "50%" is ignored.
func fraction(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case decimal.Decimal:
		return x, true
	}
	return decimal.Zero, false
}

func percentOf(v any) decimal.Decimal {
	f, ok := fraction(v)
	if !ok {
		return decimal.Zero
	}
	return f.Mul(decimal.NewFromInt(100)).Round(2)
}

type projectBudgetsTab struct{ *tabEnv }

func (t *projectBudgetsTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := projectBudgetsSchema
	for _, row := range s.data(rows) {
		name := s.text(row, "name")
		if name == "" || strings.HasPrefix(name, "TOTAL") {
			t.skipped()
			continue
		}
		code := ExtractProjectCode(name)
		budget := coerce.Currency(s.cell(row, "budget"))
		released := coerce.Currency(s.cell(row, "released"))
		pm := s.text(row, "pm")
		notes := s.text(row, "notes")

		existing, err := findOne[models.Project](ctx, map[string]any{"code": code})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &models.Project{
				Code:           code,
				Name:           name,
				Status:         models.ProjectStatusActive,
				State:          stateTennessee,
				BudgetTotal:    budget,
				ContractAmount: released,
				ProjectManager: pm,
				Notes:          notes,
			}); err != nil {
				return err
			}
			t.created()
			continue
		}
		cs := changeSet{}
		cs.dec("budget_total", &existing.BudgetTotal, budget)
		cs.dec("contract_amount", &existing.ContractAmount, released)
		cs.str("project_manager", &existing.ProjectManager, pm)
		cs.str("notes", &existing.Notes, notes)
		if err := t.saveChanges(ctx, "projects", existing.ID, existing, cs); err != nil {
			return err
		}
	}
	return nil
}

type jobCostingTab struct{ *tabEnv }

func (t *jobCostingTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := jobCostingSchema
	rules := sectionRules[uint]{
		labelCol: s.col("label"),
		sentinel: func(ctx context.Context, label string) (uint, bool, error) {
			rest, ok := strings.CutPrefix(label, projectSentinel)
			if !ok {
				return 0, false, nil
			}
			fields := strings.Fields(rest)
			if len(fields) == 0 {
				return 0, true, nil
			}
			id, err := t.resolver.Project(ctx, fields[0], fields[0])
			return id, true, err
		},
		ignore: func(label string) bool { return label == "Cost Code / Division" },
	}
	return walkSections(ctx, s.data(rows), rules, func(ctx context.Context, r sectionRow[uint]) error {
		code := s.text(r.row, "code")
		if r.key == 0 || code == "" {
			return nil
		}
		budget := coerce.Currency(s.cell(r.row, "budget"))
		actual := coerce.Currency(s.cell(r.row, "actual"))
		committed := coerce.Currency(s.cell(r.row, "committed"))
		variance := decimal.Zero
		if budget.IsPositive() {
			variance = budget.Sub(actual)
		}

		existing, err := findOne[models.CostCode](ctx, map[string]any{"project_id": r.key, "code": code})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &models.CostCode{
				ProjectID:       r.key,
				Code:            code,
				Description:     r.label,
				Category:        r.label,
				BudgetAmount:    budget,
				ActualAmount:    actual,
				CommittedAmount: committed,
				Variance:        variance,
			}); err != nil {
				return err
			}
			t.created()
			return nil
		}
		cs := changeSet{}
		cs.str("description", &existing.Description, r.label)
		cs.dec("budget_amount", &existing.BudgetAmount, budget)
		cs.dec("actual_amount", &existing.ActualAmount, actual)
		cs.dec("committed_amount", &existing.CommittedAmount, committed)
		cs.dec("variance", &existing.Variance, variance)
		return t.saveChanges(ctx, "cost_codes", existing.ID, existing, cs)
	})
}

type sovDrawBuilderTab struct{ *tabEnv }

func (t *sovDrawBuilderTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := sovDrawBuilderSchema
	rules := sectionRules[uint]{
		labelCol: s.col("label"),
		sentinel: func(ctx context.Context, label string) (uint, bool, error) {
			if !hasDashSeparator(label) {
				return 0, false, nil
			}
			id, err := t.resolver.Project(ctx, ExtractProjectCode(label), label)
			return id, true, err
		},
		ignore: func(label string) bool { return label == "Division" },
	}
	return walkSections(ctx, s.data(rows), rules, func(ctx context.Context, r sectionRow[uint]) error {
		prior := coerce.Currency(s.cell(r.row, "prior"))
		work := coerce.Currency(s.cell(r.row, "work"))
		line := models.SOVLine{
			ProjectID:       r.key,
			LineNumber:      r.ordinal,
			Description:     r.label,
			ScheduledValue:  coerce.Currency(s.cell(r.row, "scheduled")),
			PreviousBilled:  prior,
			CurrentBilled:   work,
			StoredMaterials: coerce.Currency(s.cell(r.row, "stored")),
			TotalCompleted:  prior.Add(work),
			PercentComplete: percentOf(s.cell(r.row, "percent")),
			BalanceToFinish: coerce.Currency(s.cell(r.row, "balance")),
		}
		existing, err := findOne[models.SOVLine](ctx, map[string]any{"project_id": r.key, "line_number": r.ordinal})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &line); err != nil {
				return err
			}
			t.created()
			return nil
		}
		cs := changeSet{}
		cs.str("description", &existing.Description, line.Description)
		cs.dec("scheduled_value", &existing.ScheduledValue, line.ScheduledValue)
		cs.dec("previous_billed", &existing.PreviousBilled, line.PreviousBilled)
		cs.dec("current_billed", &existing.CurrentBilled, line.CurrentBilled)
		cs.dec("stored_materials", &existing.StoredMaterials, line.StoredMaterials)
		cs.dec("total_completed", &existing.TotalCompleted, line.TotalCompleted)
		cs.dec("percent_complete", &existing.PercentComplete, line.PercentComplete)
		cs.dec("balance_to_finish", &existing.BalanceToFinish, line.BalanceToFinish)
		return t.saveChanges(ctx, "sov_lines", existing.ID, existing, cs)
	})
}

type drawTrackerTab struct{ *tabEnv }

// drawNumber takes the first integer token of a phase such as "Draw 3 -
// Framing", falling back to the sequence column.
func drawNumber(phase string, seq any) int {
	if strings.Contains(strings.ToLower(phase), "draw") {
		for _, part := range strings.Fields(phase) {
			if n, err := strconv.Atoi(part); err == nil {
				return n
			}
		}
	}
	return coerce.Int(seq)
}

func (t *drawTrackerTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := drawTrackerSchema
	for _, row := range s.data(rows) {
		code := s.text(row, "project")
		phase := s.text(row, "phase")
		if code == "" || phase == "" {
			t.skipped()
			continue
		}
		projectID, err := t.resolver.Project(ctx, code, code)
		if err != nil {
			return err
		}
		number := drawNumber(phase, s.cell(row, "seq"))
		existing, err := findOne[models.PayApp](ctx, map[string]any{"project_id": projectID, "pay_app_number": number})
		if err != nil {
			return err
		}
		if existing != nil {
			t.skipped()
			continue
		}
		amount := coerce.Currency(s.cell(row, "amount"))
		app := models.PayApp{
			ProjectID:       projectID,
			Number:          number,
			AmountRequested: amount,
			AmountApproved:  decimal.Zero,
			NetPayment:      decimal.Zero,
			Status:          models.PayAppStatusDraft,
			Notes:           phase,
		}
		if strings.Contains(strings.ToUpper(s.text(row, "status")), drawReleased) {
			app.Status = models.PayAppStatusPaid
			app.AmountApproved = amount
			app.NetPayment = amount
		}
		if err := insert(ctx, &app); err != nil {
			return err
		}
		t.created()
	}
	return nil
}

type changeOrdersTab struct{ *tabEnv }

func (t *changeOrdersTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := changeOrdersSchema
	for _, row := range s.data(rows) {
		number := s.textN(row, "co_number", 20)
		code := s.text(row, "project")
		if number == "" || code == "" {
			t.skipped()
			continue
		}
		projectID, err := t.resolver.Project(ctx, code, code)
		if err != nil {
			return err
		}
		mat := coerce.Currency(s.cell(row, "material"))
		labor := coerce.Currency(s.cell(row, "labor"))
		sub := coerce.Currency(s.cell(row, "sub"))
		co := models.ChangeOrder{
			ProjectID:     projectID,
			CONumber:      number,
			Title:         s.text(row, "description"),
			Description:   s.textN(row, "description", 2000),
			Amount:        mat.Add(labor).Add(sub),
			Status:        changeOrderStatuses.Classify(s.text(row, "status")),
			RequestedBy:   s.text(row, "requested_by"),
			DateSubmitted: s.date(row, "submitted"),
			DateApproved:  s.date(row, "approved"),
			Notes: fmt.Sprintf("Mat: %s | Lab: %s | Sub: %s | Reason: %s | %s",
				coerce.USD(mat), coerce.USD(labor), coerce.USD(sub), s.raw(row, "reason"), s.raw(row, "notes")),
		}
		existing, err := findOne[models.ChangeOrder](ctx, map[string]any{"project_id": projectID, "co_number": number})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &co); err != nil {
				return err
			}
			t.created()
			continue
		}
		cs := changeSet{}
		cs.str("title", &existing.Title, co.Title)
		cs.str("description", &existing.Description, co.Description)
		cs.dec("amount", &existing.Amount, co.Amount)
		cs.str("status", &existing.Status, co.Status)
		cs.str("requested_by", &existing.RequestedBy, co.RequestedBy)
		cs.date("date_submitted", &existing.DateSubmitted, co.DateSubmitted)
		cs.date("date_approved", &existing.DateApproved, co.DateApproved)
		cs.str("notes", &existing.Notes, co.Notes)
		if err := t.saveChanges(ctx, "change_orders", existing.ID, existing, cs); err != nil {
			return err
		}
	}
	return nil
}

type lienWaiversTab struct{ *tabEnv }

func (t *lienWaiversTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := lienWaiversSchema
	for _, row := range s.data(rows) {
		name := s.text(row, "vendor")
		if name == "" || strings.HasPrefix(name, "TOTAL") {
			t.skipped()
			continue
		}
		vendorID, err := t.resolver.Vendor(ctx, name)
		if err != nil {
			return err
		}
		projectID, _, err := t.resolver.ProjectByCode(ctx, s.text(row, "project"))
		if err != nil {
			return err
		}
		waiverType := ""
		switch {
		case s.text(row, "unconditional") != "":
			waiverType = "unconditional"
		case s.text(row, "conditional") != "":
			waiverType = "conditional"
		}
		received := s.date(row, "unconditional_date")
		if received == nil {
			received = s.date(row, "conditional_date")
		}
		draw := coerce.Text(s.cell(row, "draw"), 50)
		lw := models.LienWaiver{
			VendorID:     vendorID,
			ProjectID:    idPtr(projectID),
			DrawRef:      draw,
			WaiverType:   waiverType,
			Amount:       coerce.Currency(s.cell(row, "amount")),
			ThroughDate:  s.date(row, "through"),
			ReceivedDate: received,
			Notes:        fmt.Sprintf("Risk: %s | Draw: %s | %s", s.raw(row, "risk"), draw, s.raw(row, "notes")),
		}
		existing, err := findOne[models.LienWaiver](ctx, map[string]any{
			"vendor_id":  vendorID,
			"project_id": lw.ProjectID,
			"draw_ref":   draw,
		})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &lw); err != nil {
				return err
			}
			t.created()
			continue
		}
		cs := changeSet{}
		cs.str("waiver_type", &existing.WaiverType, lw.WaiverType)
		cs.dec("amount", &existing.Amount, lw.Amount)
		cs.date("through_date", &existing.ThroughDate, lw.ThroughDate)
		cs.date("received_date", &existing.ReceivedDate, lw.ReceivedDate)
		cs.str("notes", &existing.Notes, lw.Notes)
		if err := t.saveChanges(ctx, "lien_waivers", existing.ID, existing, cs); err != nil {
			return err
		}
	}
	return nil
}

type projectScheduleTab struct{ *tabEnv }

func (t *projectScheduleTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := projectScheduleSchema
	today := t.today()
	rules := sectionRules[uint]{
		labelCol: s.col("label"),
		sentinel: func(ctx context.Context, label string) (uint, bool, error) {
			rest, ok := strings.CutPrefix(label, projectSentinel)
			if !ok {
				return 0, false, nil
			}
			id, err := t.resolver.Project(ctx, ExtractProjectCode(rest), label)
			return id, true, err
		},
		ignore: func(label string) bool { return label == "Milestone" },
	}
	return walkSections(ctx, s.data(rows), rules, func(ctx context.Context, r sectionRow[uint]) error {
		planned := s.date(r.row, "planned")
		actual := s.date(r.row, "actual")
		status := models.MilestoneNotStarted
		switch {
		case actual != nil:
			status = models.MilestoneCompleted
		case planned != nil && planned.Before(today):
			status = models.MilestoneDelayed
		}
		ms := models.ProjectMilestone{
			ProjectID:    r.key,
			TaskName:     r.label,
			PlannedStart: planned,
			PlannedEnd:   planned,
			ActualStart:  actual,
			ActualEnd:    actual,
			Status:       status,
			AssignedTo:   s.text(r.row, "responsible"),
			SortOrder:    r.ordinal,
			Notes:        s.text(r.row, "notes"),
		}
		existing, err := findOne[models.ProjectMilestone](ctx, map[string]any{
			"project_id":    r.key,
			"task_name":     r.label,
			"planned_start": planned,
		})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &ms); err != nil {
				return err
			}
			t.created()
			return nil
		}
		cs := changeSet{}
		cs.date("planned_end", &existing.PlannedEnd, ms.PlannedEnd)
		cs.date("actual_start", &existing.ActualStart, ms.ActualStart)
		cs.date("actual_end", &existing.ActualEnd, ms.ActualEnd)
		cs.str("status", &existing.Status, ms.Status)
		cs.str("assigned_to", &existing.AssignedTo, ms.AssignedTo)
		cs.integer("sort_order", &existing.SortOrder, ms.SortOrder)
		cs.str("notes", &existing.Notes, ms.Notes)
		return t.saveChanges(ctx, "project_milestones", existing.ID, existing, cs)
	})
}

type phaseSyncTab struct{ *tabEnv }

func (t *phaseSyncTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := phaseSyncSchema
	for _, row := range s.data(rows) {
		code := s.text(row, "project")
		phase := s.text(row, "phase")
		if code == "" || phase == "" {
			t.skipped()
			continue
		}
		projectID, err := t.resolver.Project(ctx, code, code)
		if err != nil {
			return err
		}
		entry := models.PhaseSyncEntry{
			ProjectID:    projectID,
			PhaseName:    phase,
			Status:       s.text(row, "status"),
			PlannedStart: s.date(row, "start"),
			PlannedEnd:   s.date(row, "end"),
			Notes:        fmt.Sprintf("Material: %s | Supplier: %s", s.raw(row, "material"), s.raw(row, "supplier")),
		}
		existing, err := findOne[models.PhaseSyncEntry](ctx, map[string]any{"project_id": projectID, "phase_name": phase})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &entry); err != nil {
				return err
			}
			t.created()
			continue
		}
		cs := changeSet{}
		cs.str("status", &existing.Status, entry.Status)
		cs.date("planned_start", &existing.PlannedStart, entry.PlannedStart)
		cs.date("planned_end", &existing.PlannedEnd, entry.PlannedEnd)
		cs.str("notes", &existing.Notes, entry.Notes)
		if err := t.saveChanges(ctx, "phase_sync_entries", existing.ID, existing, cs); err != nil {
			return err
		}
	}
	return nil
}

type retainageTab struct{ *tabEnv }

func retainageRate(v any) decimal.Decimal {
	if f, ok := fraction(v); ok && !f.IsZero() {
		return f
	}
	return decimal.RequireFromString(defaultRetainage)
}

func (t *retainageTab) Parse(ctx context.Context, rows []coerce.Row) error {
	if len(rows) < retainageReceivableSchema.minRows {
		return nil
	}
	rules := sectionRules[string]{
		labelCol: 0,
		sentinel: func(_ context.Context, label string) (string, bool, error) {
			switch {
			case strings.Contains(label, "HELD BY LENDERS"):
				return models.RetainageReceivable, true, nil
			case strings.Contains(label, "YOU OWE"):
				return models.RetainagePayable, true, nil
			}
			return "", false, nil
		},
		ignore: func(label string) bool { return label == "Project" || label == "Sub/Vendor" },
	}
	return walkSections(ctx, rows, rules, func(ctx context.Context, r sectionRow[string]) error {
		var entry models.RetainageEntry
		if r.key == models.RetainageReceivable {
			s := retainageReceivableSchema
			projectID, ok, err := t.resolver.ProjectByCode(ctx, r.label)
			if err != nil || !ok {
				return err
			}
			held := decimal.Zero
			if billed := coerce.Currency(s.cell(r.row, "billed")); billed.IsPositive() {
				held = billed.Mul(retainageRate(s.cell(r.row, "percent"))).Round(2)
			}
			lender := s.text(r.row, "lender")
			party := lender
			if party == "" {
				party = r.label
			}
			entry = models.RetainageEntry{
				Kind:       models.RetainageReceivable,
				Party:      party,
				ProjectID:  idPtr(projectID),
				AmountHeld: held,
				Balance:    held,
				Notes:      fmt.Sprintf("Lender: %s | Release: %s | Type: receivable", lender, s.raw(r.row, "release")),
			}
		} else {
			s := retainagePayableSchema
			vendorID, err := t.resolver.Vendor(ctx, r.label)
			if err != nil {
				return err
			}
			projectID, _, err := t.resolver.ProjectByCode(ctx, s.text(r.row, "project"))
			if err != nil {
				return err
			}
			held := decimal.Zero
			if paid := coerce.Currency(s.cell(r.row, "paid")); paid.IsPositive() {
				held = paid.Mul(retainageRate(s.cell(r.row, "percent"))).Round(2)
			}
			entry = models.RetainageEntry{
				Kind:       models.RetainagePayable,
				Party:      r.label,
				ProjectID:  idPtr(projectID),
				VendorID:   idPtr(vendorID),
				AmountHeld: held,
				Balance:    held,
				Notes:      fmt.Sprintf("Release: %s | Type: payable", s.raw(r.row, "release")),
			}
		}

		existing, err := findOne[models.RetainageEntry](ctx, map[string]any{
			"kind":       entry.Kind,
			"party":      entry.Party,
			"project_id": entry.ProjectID,
		})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &entry); err != nil {
				return err
			}
			t.created()
			return nil
		}
		cs := changeSet{}
		cs.uintPtr("vendor_id", &existing.VendorID, entry.VendorID)
		cs.dec("amount_held", &existing.AmountHeld, entry.AmountHeld)
		cs.dec("balance", &existing.Balance, entry.Balance)
		cs.str("notes", &existing.Notes, entry.Notes)
		return t.saveChanges(ctx, "retainage_entries", existing.ID, existing, cs)
	})
}
