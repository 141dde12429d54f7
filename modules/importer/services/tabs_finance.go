package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/coerce"
	"github.com/iota-uz/workbook-import/pkg/composables"
)

var debtScheduleSchema = newTabSchema(2, 3,
	"category", "priority", "creditor", "amount", "detail", "risk", "-", "status", "notes",
)

var debtPayoffSchema = newTabSchema(3, 4,
	"creditor", "-", "settlement", "-", "-", "-", "-", "order", "strategy",
)

var propertiesSchema = newTabSchema(2, 3,
	"name", "sqft", "budget", "debt", "-", "arv", "-", "-", "-", "exit", "lender", "status",
)

var cashFlowSchema = newTabSchema(3, 4, "category")

var recurringExpSchema = newTabSchema(3, 4,
	"name", "category", "frequency", "amount", "-", "autopay", "-", "method", "status", "notes",
)

var (
	monthlyPLSchema     = newTabSchema(4, 5, plFields()...)
	multifamilyPLSchema = newTabSchema(6, 7, plFields()...)
)

var scenarioModelSchema = newTabSchema(1, 12, "variable", "value")

var coaSchema = newTabSchema(3, 4, "number", "name", "type", "notes")

var arAgingSchema = newTabSchema(2, 3,
	"client", "amount", "issued", "due", "description", "bucket", "-", "notes",
)

const (
	dailyInputsMinRows = 10
	dailyInputsAccount = "DAILY INPUTS Snapshot"
	dailyInputsNotes   = "Imported from DAILY INPUTS tab"

	// Week columns of the forecast and crew sheets.
	firstWeekCol = 2
	lastWeekCol  = 14

	plYear = 2025
)

func plFields() []string {
	fields := []string{"account"}
	for m := time.January; m <= time.December; m++ {
		fields = append(fields, strings.ToLower(m.String()[:3]))
	}
	return fields
}

// weekHeaderDate reads a "M/D" header in the given year.
func weekHeaderDate(md string, year int) *time.Time {
	md = strings.TrimSpace(md)
	if md == "" {
		return nil
	}
	return coerce.Date(fmt.Sprintf("%s/%d", md, year))
}

type debtScheduleTab struct{ *tabEnv }

func (t *debtScheduleTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := debtScheduleSchema
	for _, row := range s.data(rows) {
		creditor := s.text(row, "creditor")
		if creditor == "" || strings.HasPrefix(creditor, "TOTAL") || strings.HasPrefix(creditor, "=") {
			t.skipped()
			continue
		}
		existing, err := findOne[models.Debt](ctx, map[string]any{"name": creditor})
		if err != nil {
			return err
		}
		if existing != nil {
			t.skipped()
			continue
		}
		category := s.text(row, "category")
		status := s.text(row, "status")
		amount := coerce.Currency(s.cell(row, "amount"))
		var notes []string
		for _, part := range []string{s.text(row, "detail"), s.text(row, "risk"), status, s.text(row, "notes")} {
			if part != "" {
				notes = append(notes, part)
			}
		}
		debt := models.Debt{
			Name:            creditor,
			Lender:          category,
			DebtType:        debtTypes.Classify(category),
			CurrentBalance:  amount,
			OriginalBalance: amount,
			IsActive:        status != "SETTLED" && status != "PAID",
			Notes:           strings.Join(notes, "; "),
		}
		if err := insert(ctx, &debt); err != nil {
			return err
		}
		t.created()
	}
	return nil
}

type debtPayoffTab struct{ *tabEnv }

func (t *debtPayoffTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := debtPayoffSchema
	for _, row := range s.data(rows) {
		creditor := s.text(row, "creditor")
		if creditor == "" || strings.HasPrefix(creditor, "TOTAL") {
			t.skipped()
			continue
		}
		needle, _, _ := strings.Cut(creditor, "(")
		needle = coerce.Text(needle, 20)
		if needle == "" {
			t.skipped()
			continue
		}
		debt, err := t.matchDebt(ctx, needle)
		if err != nil {
			return err
		}
		if debt == nil {
			t.logger.WithField("creditor", creditor).Debug("no debt matches payoff row")
			t.skipped()
			continue
		}
		settlement := coerce.Currency(s.cell(row, "settlement"))
		cs := changeSet{}
		cs.nullDec("settlement_offer", &debt.SettlementOffer, nullDecimal(settlement, settlement.IsPositive()))
		cs.str("payoff_order", &debt.PayoffOrder, coerce.Text(s.cell(row, "order"), 50))
		cs.str("strategy", &debt.Strategy, s.textN(row, "strategy", 2000))
		if err := t.saveChanges(ctx, "debts", debt.ID, debt, cs); err != nil {
			return err
		}
	}
	return nil
}

func (t *debtPayoffTab) matchDebt(ctx context.Context, needle string) (*models.Debt, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var debts []models.Debt
	pattern := "%" + strings.ToLower(needle) + "%"
	if err := tx.Where("LOWER(name) LIKE ?", pattern).Order("id").Limit(1).Find(&debts).Error; err != nil {
		return nil, errors.Wrapf(err, "match debt %q", needle)
	}
	if len(debts) == 0 {
		return nil, nil
	}
	return &debts[0], nil
}

type propertiesTab struct{ *tabEnv }

func (t *propertiesTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := propertiesSchema
	for _, row := range s.data(rows) {
		name := s.text(row, "name")
		if name == "" || strings.HasPrefix(name, "TOTAL") {
			t.skipped()
			continue
		}
		existing, err := findOne[models.Property](ctx, map[string]any{"address": name})
		if err != nil {
			return err
		}
		if existing != nil {
			t.skipped()
			continue
		}
		debt := coerce.Currency(s.cell(row, "debt"))
		arv := coerce.Currency(s.cell(row, "arv"))
		prop := models.Property{
			Address:       name,
			State:         stateTennessee,
			PurchasePrice: coerce.Currency(s.cell(row, "budget")),
			CurrentValue:  arv,
			ARV:           arv,
			ExitStrategy:  s.text(row, "exit"),
			Notes: fmt.Sprintf("Lender: %s | SqFt: %s | Status: %s",
				s.raw(row, "lender"), s.raw(row, "sqft"), s.raw(row, "status")),
		}
		if arv.IsPositive() && debt.IsPositive() {
			prop.Equity = nullDecimal(arv.Sub(debt), true)
		}
		if arv.IsPositive() {
			prop.LTV = nullDecimal(debt.Div(arv).Round(4), true)
		}
		if err := insert(ctx, &prop); err != nil {
			return err
		}
		t.created()
	}
	return nil
}

type dailyInputsTab struct{ *tabEnv }

// DAILY INPUTS is a form, not a table: the opening balance sits in B8.
func (t *dailyInputsTab) Parse(ctx context.Context, rows []coerce.Row) error {
	if len(rows) < dailyInputsMinRows {
		return nil
	}
	today := t.today()
	balance := coerce.Currency(coerce.Cell(rows[7], 1))
	existing, err := findOne[models.CashSnapshot](ctx, map[string]any{
		"snapshot_date": today,
		"account_name":  dailyInputsAccount,
	})
	if err != nil {
		return err
	}
	if existing == nil {
		if err := insert(ctx, &models.CashSnapshot{
			SnapshotDate: today,
			AccountName:  dailyInputsAccount,
			Balance:      balance,
			Notes:        dailyInputsNotes,
		}); err != nil {
			return err
		}
		t.created()
		return nil
	}
	cs := changeSet{}
	cs.dec("balance", &existing.Balance, balance)
	return t.saveChanges(ctx, "cash_snapshots", existing.ID, existing, cs)
}

type cashFlowTab struct{ *tabEnv }

func (t *cashFlowTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := cashFlowSchema
	data := s.data(rows)
	if data == nil {
		return nil
	}
	header := rows[2]
	type week struct {
		col  int
		date time.Time
	}
	var weeks []week
	for i := firstWeekCol; i <= lastWeekCol && i < len(header); i++ {
		date := t.today()
		if h := coerce.String(header[i]); strings.Contains(h, "\n") {
			if d := weekHeaderDate(h[strings.LastIndex(h, "\n")+1:], t.year); d != nil {
				date = *d
			}
		}
		weeks = append(weeks, week{col: i, date: date})
	}

	for _, row := range data {
		category := s.text(row, "category")
		if category == "" || isStructuralLabel(category) {
			continue
		}
		for _, w := range weeks {
			amount := coerce.Currency(coerce.Cell(row, w.col))
			if amount.IsZero() {
				continue
			}
			line := models.CashForecastLine{
				WeekStarting: w.date,
				Category:     category,
				AmountIn:     decimal.Max(amount, decimal.Zero),
				AmountOut:    decimal.Max(amount.Neg(), decimal.Zero),
				Net:          amount,
			}
			if err := t.upsert(ctx, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *cashFlowTab) upsert(ctx context.Context, line models.CashForecastLine) error {
	existing, err := findOne[models.CashForecastLine](ctx, map[string]any{
		"week_starting": line.WeekStarting,
		"category":      line.Category,
	})
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
	cs.dec("amount_in", &existing.AmountIn, line.AmountIn)
	cs.dec("amount_out", &existing.AmountOut, line.AmountOut)
	cs.dec("net", &existing.Net, line.Net)
	return t.saveChanges(ctx, "cash_forecast_lines", existing.ID, existing, cs)
}

type recurringExpTab struct{ *tabEnv }

func (t *recurringExpTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := recurringExpSchema
	for _, row := range s.data(rows) {
		name := s.text(row, "name")
		if name == "" || isStructuralLabel(name) {
			t.skipped()
			continue
		}
		vendorID, err := t.resolver.Vendor(ctx, name)
		if err != nil {
			return err
		}
		status := s.text(row, "status")
		exp := models.RecurringExpense{
			VendorID:    idPtr(vendorID),
			Description: name,
			Amount:      coerce.Currency(s.cell(row, "amount")),
			Frequency:   recurringFrequencies.Classify(s.text(row, "frequency")),
			IsActive:    strings.ToUpper(status) != "CANCELLED",
			Notes: fmt.Sprintf("Cat: %s | AutoPay: %s | Method: %s | Status: %s | %s",
				s.raw(row, "category"), s.raw(row, "autopay"), s.raw(row, "method"), status, s.raw(row, "notes")),
		}
		existing, err := findOne[models.RecurringExpense](ctx, map[string]any{"description": name})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &exp); err != nil {
				return err
			}
			t.created()
			continue
		}
		cs := changeSet{}
		cs.uintPtr("vendor_id", &existing.VendorID, exp.VendorID)
		cs.dec("amount", &existing.Amount, exp.Amount)
		cs.str("frequency", &existing.Frequency, exp.Frequency)
		cs.boolean("is_active", &existing.IsActive, exp.IsActive)
		cs.str("notes", &existing.Notes, exp.Notes)
		if err := t.saveChanges(ctx, "recurring_expenses", existing.ID, existing, cs); err != nil {
			return err
		}
	}
	return nil
}

// plTab reads a pivoted P&L: one account per row, January..December in
// columns 1 through 12.
type plTab struct {
	*tabEnv
	schema   *tabSchema
	division string
}

func (t *plTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := t.schema
	for _, row := range s.data(rows) {
		account := s.text(row, "account")
		if account == "" || isStructuralLabel(account) {
			continue
		}
		category := plCategories.Classify(account)
		for month := 1; month <= 12; month++ {
			amount := coerce.Currency(coerce.Cell(row, month))
			if amount.IsZero() {
				continue
			}
			key := map[string]any{
				"period_year":  plYear,
				"period_month": month,
				"division":     t.division,
				"account_name": account,
				"is_budget":    false,
			}
			existing, err := findOne[models.PLEntry](ctx, key)
			if err != nil {
				return err
			}
			if existing == nil {
				if err := insert(ctx, &models.PLEntry{
					PeriodYear:  plYear,
					PeriodMonth: month,
					Division:    t.division,
					AccountName: account,
					Category:    category,
					Amount:      amount,
				}); err != nil {
					return err
				}
				t.created()
				continue
			}
			cs := changeSet{}
			cs.dec("amount", &existing.Amount, amount)
			cs.str("category", &existing.Category, category)
			if err := t.saveChanges(ctx, "pl_entries", existing.ID, existing, cs); err != nil {
				return err
			}
		}
	}
	return nil
}

type scenarioModelTab struct{ *tabEnv }

func (t *scenarioModelTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := scenarioModelSchema
	rules := sectionRules[uint]{
		labelCol: s.col("variable"),
		sentinel: func(ctx context.Context, label string) (uint, bool, error) {
			if !strings.HasPrefix(label, "SCENARIO") && !strings.HasPrefix(label, "CURRENT STATE") {
				return 0, false, nil
			}
			id, err := t.scenario(ctx, label)
			return id, true, err
		},
	}
	return walkSections(ctx, s.data(rows), rules, func(ctx context.Context, r sectionRow[uint]) error {
		raw := s.cell(r.row, "value")
		if raw == nil {
			return nil
		}
		value := coerce.Text(raw, coerce.DefaultTextLen)
		existing, err := findOne[models.ScenarioAssumption](ctx, map[string]any{
			"scenario_id":   r.key,
			"variable_name": r.label,
		})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &models.ScenarioAssumption{
				ScenarioID:    r.key,
				VariableName:  r.label,
				VariableValue: value,
			}); err != nil {
				return err
			}
			t.created()
			return nil
		}
		cs := changeSet{}
		cs.str("variable_value", &existing.VariableValue, value)
		return t.saveChanges(ctx, "scenario_assumptions", existing.ID, existing, cs)
	})
}

func (t *scenarioModelTab) scenario(ctx context.Context, name string) (uint, error) {
	existing, err := findOne[models.Scenario](ctx, map[string]any{"name": name})
	if err != nil {
		return 0, err
	}
	if existing != nil {
		t.skipped()
		return existing.ID, nil
	}
	sc := models.Scenario{Name: name, IsBaseline: strings.HasPrefix(name, "CURRENT")}
	if err := insert(ctx, &sc); err != nil {
		return 0, err
	}
	t.created()
	return sc.ID, nil
}

type coaTab struct{ *tabEnv }

func (t *coaTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := coaSchema
	for _, row := range s.data(rows) {
		number := s.textN(row, "number", 20)
		name := s.text(row, "name")
		if number == "" || name == "" {
			t.skipped()
			continue
		}
		existing, err := findOne[models.ChartOfAccount](ctx, map[string]any{"account_number": number})
		if err != nil {
			return err
		}
		if existing != nil {
			t.skipped()
			continue
		}
		accountType := s.text(row, "type")
		if accountType == "" {
			accountType = accountTypes.Classify(name)
		}
		if err := insert(ctx, &models.ChartOfAccount{
			AccountNumber: number,
			Name:          name,
			AccountType:   accountType,
			Notes:         s.text(row, "notes"),
		}); err != nil {
			return err
		}
		t.created()
	}
	return nil
}

type arAgingTab struct{ *tabEnv }

func (t *arAgingTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := arAgingSchema
	for _, row := range s.data(rows) {
		client := s.text(row, "client")
		if client == "" || strings.HasPrefix(client, "TOTAL") {
			t.skipped()
			continue
		}
		amount := coerce.Currency(s.cell(row, "amount"))
		if amount.IsZero() {
			t.skipped()
			continue
		}
		number := s.text(row, "description")
		if number == "" {
			number = "AR-" + coerce.Text(client, 10)
		}
		bucket := s.text(row, "bucket")
		status := models.InvoiceOverdue
		if bucket == "0-30" {
			status = models.InvoiceSent
		}
		inv := models.Invoice{
			InvoiceNumber: number,
			ClientName:    client,
			DateIssued:    s.date(row, "issued"),
			DateDue:       s.date(row, "due"),
			Amount:        amount,
			Balance:       amount,
			Status:        status,
			Notes:         fmt.Sprintf("Client: %s | Bucket: %s | %s", client, bucket, s.raw(row, "notes")),
		}
		existing, err := findOne[models.Invoice](ctx, map[string]any{"invoice_number": number, "client_name": client})
		if err != nil {
			return err
		}
		if existing == nil {
			if err := insert(ctx, &inv); err != nil {
				return err
			}
			t.created()
			continue
		}
		cs := changeSet{}
		cs.date("date_issued", &existing.DateIssued, inv.DateIssued)
		cs.date("date_due", &existing.DateDue, inv.DateDue)
		cs.dec("amount", &existing.Amount, inv.Amount)
		cs.dec("balance", &existing.Balance, inv.Balance)
		cs.str("status", &existing.Status, inv.Status)
		cs.str("notes", &existing.Notes, inv.Notes)
		if err := t.saveChanges(ctx, "invoices", existing.ID, existing, cs); err != nil {
			return err
		}
	}
	return nil
}
