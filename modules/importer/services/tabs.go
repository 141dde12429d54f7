package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/coerce"
)

// Sheet identifies a workbook tab by its exact name.
type Sheet string

const (
	SheetTxnLog           Sheet = "TXN LOG"
	SheetDebtSchedule     Sheet = "DEBT SCHEDULE"
	SheetProperties       Sheet = "PROPERTIES"
	SheetProjectBudgets   Sheet = "PROJECT BUDGETS"
	SheetJobCosting       Sheet = "JOB COSTING"
	SheetSOVDrawBuilder   Sheet = "SOV DRAW BUILDER"
	SheetDrawTracker      Sheet = "DRAW TRACKER"
	SheetEmployeeCosts    Sheet = "EMPLOYEE COSTS"
	SheetPayroll          Sheet = "PAYROLL"
	SheetPayrollCalendar  Sheet = "PAYROLL CALENDAR"
	SheetDailyInputs      Sheet = "DAILY INPUTS"
	SheetCashFlow13Wk     Sheet = "CASH FLOW 13WK"
	SheetPhaseSync        Sheet = "PHASE SYNC"
	SheetDebtPayoff       Sheet = "DEBT PAYOFF"
	SheetRecurringExp     Sheet = "RECURRING EXP"
	SheetMonthlyPL        Sheet = "MONTHLY PL"
	SheetMultifamilyPL    Sheet = "MULTIFAMILY PL"
	SheetScenarioModel    Sheet = "SCENARIO MODEL"
	SheetCOA              Sheet = "COA"
	SheetDataLog          Sheet = "DATA LOG"
	SheetChangeOrders     Sheet = "CHANGE ORDERS"
	SheetLienWaivers      Sheet = "LIEN WAIVERS"
	SheetVendorScorecard  Sheet = "VENDOR SCORECARD"
	SheetProjectSchedule  Sheet = "PROJECT SCHEDULE"
	SheetRetainage        Sheet = "RETAINAGE"
	SheetBidPipeline      Sheet = "BID PIPELINE"
	SheetCrewAllocation   Sheet = "CREW ALLOCATION"
	SheetARAging          Sheet = "AR AGING"
	SheetAPAging          Sheet = "AP AGING"
	SheetLowesPro         Sheet = "LOWES PRO"
	SheetVictoryCrossings Sheet = "VICTORY CROSSINGS"
)

// Computed tabs that carry no source data.
var skippedSheets = map[Sheet]struct{}{
	"TAB INDEX":         {},
	"KPI":               {},
	"DASHBOARD":         {},
	"WIP SCHEDULE":      {},
	"PAYMENT WATERFALL": {},
	"WEEKLY DIGEST":     {},
	"CASH POSITION":     {},
}

// TabHandler parses the rows of one sheet and writes through the
// transaction carried by ctx.
type TabHandler interface {
	Parse(ctx context.Context, rows []coerce.Row) error
}

// tabSchema describes a positional sheet layout: data starts at dataStart
// and fields[i] names column i. Unused columns are named "-".
type tabSchema struct {
	dataStart int
	minRows   int
	fields    []string
	index     map[string]int
}

func newTabSchema(dataStart, minRows int, fields ...string) *tabSchema {
	s := &tabSchema{
		dataStart: dataStart,
		minRows:   minRows,
		fields:    fields,
		index:     make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f == "" || f == "-" {
			continue
		}
		if _, dup := s.index[f]; dup {
			panic(fmt.Sprintf("tab schema: duplicate field %q", f))
		}
		s.index[f] = i
	}
	return s
}

func (s *tabSchema) col(field string) int {
	i, ok := s.index[field]
	if !ok {
		panic(fmt.Sprintf("tab schema: unknown field %q", field))
	}
	return i
}

// data returns the data rows, or nil when the sheet is shorter than minRows.
func (s *tabSchema) data(rows []coerce.Row) []coerce.Row {
	if len(rows) < s.minRows || len(rows) <= s.dataStart {
		return nil
	}
	return rows[s.dataStart:]
}

func (s *tabSchema) cell(row coerce.Row, field string) any {
	return coerce.Cell(row, s.col(field))
}

func (s *tabSchema) text(row coerce.Row, field string) string {
	return coerce.Text(s.cell(row, field), coerce.DefaultTextLen)
}

func (s *tabSchema) textN(row coerce.Row, field string, maxLen int) string {
	return coerce.Text(s.cell(row, field), maxLen)
}

// raw renders the cell for free-text notes; blanks become "".
func (s *tabSchema) raw(row coerce.Row, field string) string {
	return coerce.String(s.cell(row, field))
}

func (s *tabSchema) date(row coerce.Row, field string) *time.Time {
	return coerce.Date(s.cell(row, field))
}

// tabEnv is what every tab handler shares within one masterfile run.
type tabEnv struct {
	resolver   *Resolver
	audit      *persistence.AuditLogRepository
	result     *Result
	batchID    string
	now        func() time.Time
	flushEvery int
	logger     logrus.FieldLogger

	// Year appended to the "M/D" week headers of the forecast and crew sheets.
	year int
}

func (e *tabEnv) today() time.Time {
	y, m, d := e.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (e *tabEnv) created() { e.result.Created++ }
func (e *tabEnv) updated() { e.result.Updated++ }
func (e *tabEnv) skipped() { e.result.Skipped++ }

func masterfileHandlers(env *tabEnv) map[Sheet]TabHandler {
	return map[Sheet]TabHandler{
		SheetTxnLog:           &txnLogTab{env},
		SheetDebtSchedule:     &debtScheduleTab{env},
		SheetProperties:       &propertiesTab{env},
		SheetProjectBudgets:   &projectBudgetsTab{env},
		SheetJobCosting:       &jobCostingTab{env},
		SheetSOVDrawBuilder:   &sovDrawBuilderTab{env},
		SheetDrawTracker:      &drawTrackerTab{env},
		SheetEmployeeCosts:    &employeeCostsTab{env},
		SheetPayroll:          &payrollTab{env},
		SheetPayrollCalendar:  &payrollCalendarTab{env},
		SheetDailyInputs:      &dailyInputsTab{env},
		SheetCashFlow13Wk:     &cashFlowTab{env},
		SheetPhaseSync:        &phaseSyncTab{env},
		SheetDebtPayoff:       &debtPayoffTab{env},
		SheetRecurringExp:     &recurringExpTab{env},
		SheetMonthlyPL:        &plTab{tabEnv: env, schema: monthlyPLSchema, division: models.DivisionCompanyWide},
		SheetMultifamilyPL:    &plTab{tabEnv: env, schema: multifamilyPLSchema, division: models.DivisionMultifamily},
		SheetScenarioModel:    &scenarioModelTab{env},
		SheetCOA:              &coaTab{env},
		SheetDataLog:          &dataLogTab{env},
		SheetChangeOrders:     &changeOrdersTab{env},
		SheetLienWaivers:      &lienWaiversTab{env},
		SheetVendorScorecard:  &vendorScorecardTab{env},
		SheetProjectSchedule:  &projectScheduleTab{env},
		SheetRetainage:        &retainageTab{env},
		SheetBidPipeline:      &bidPipelineTab{env},
		SheetCrewAllocation:   &crewAllocationTab{env},
		SheetARAging:          &arAgingTab{env},
		SheetAPAging:          &apAgingTab{env},
		SheetLowesPro:         &lowesProTab{env},
		SheetVictoryCrossings: &victoryCrossingsTab{env},
	}
}
