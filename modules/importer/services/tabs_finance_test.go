package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
)

func scenarioSheet(marginB float64) [][]any {
	return [][]any{
		{"SCENARIO MODEL"},
		{"CURRENT STATE"},
		{"Monthly overhead", 42000},
		{"Active projects", 6},
		{"Notes"},
		{"SCENARIO A: Add crew"},
		{"Monthly overhead", 48000},
		{"Active projects", 8},
		{"TOTAL", 56000},
		{"SCENARIO B: Cut overhead"},
		{"Monthly overhead", "38,000"},
		{"Gross margin", marginB},
	}
}

func TestScenarioModel_SectionsSwitchScenario(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	parseInTx(t, ctx, &scenarioModelTab{env}, fixtureRows(t, SheetScenarioModel, scenarioSheet(0.35)))
	require.Equal(t, 9, env.result.Created, "three scenarios and six assumptions")

	var scenarios []models.Scenario
	require.NoError(t, db.Order("id").Find(&scenarios).Error)
	require.Len(t, scenarios, 3)
	require.Equal(t, "CURRENT STATE", scenarios[0].Name)
	require.True(t, scenarios[0].IsBaseline)
	require.Equal(t, "SCENARIO A: Add crew", scenarios[1].Name)
	require.False(t, scenarios[1].IsBaseline)

	values := func(scenarioID uint) map[string]string {
		var rows []models.ScenarioAssumption
		require.NoError(t, db.Where("scenario_id = ?", scenarioID).Find(&rows).Error)
		out := make(map[string]string, len(rows))
		for _, r := range rows {
			out[r.VariableName] = r.VariableValue
		}
		return out
	}
	require.Equal(t, map[string]string{"Monthly overhead": "42000", "Active projects": "6"}, values(scenarios[0].ID))
	require.Equal(t, map[string]string{"Monthly overhead": "48000", "Active projects": "8"}, values(scenarios[1].ID))
	require.Equal(t, map[string]string{"Monthly overhead": "38,000", "Gross margin": "0.35"}, values(scenarios[2].ID))
}

func TestScenarioModel_Rerun(t *testing.T) {
	ctx, db := newTestDB(t)

	parseInTx(t, ctx, &scenarioModelTab{newTestEnv()}, fixtureRows(t, SheetScenarioModel, scenarioSheet(0.35)))

	again := newTestEnv()
	parseInTx(t, ctx, &scenarioModelTab{again}, fixtureRows(t, SheetScenarioModel, scenarioSheet(0.35)))
	require.Zero(t, again.result.Created)
	require.Equal(t, 9, again.result.Skipped)

	changed := newTestEnv()
	parseInTx(t, ctx, &scenarioModelTab{changed}, fixtureRows(t, SheetScenarioModel, scenarioSheet(0.4)))
	require.Equal(t, 1, changed.result.Updated)
	require.EqualValues(t, 6, countRows(t, db, &models.ScenarioAssumption{}))

	var margin models.ScenarioAssumption
	require.NoError(t, db.Where("variable_name = ?", "Gross margin").First(&margin).Error)
	require.Equal(t, "0.4", margin.VariableValue)
	require.Equal(t, [2]string{"0.35", "0.4"}, auditTrail(t, db, "scenario_assumptions", margin.ID)["variable_value"])

	short := newTestEnv()
	parseInTx(t, ctx, &scenarioModelTab{short}, fixtureRows(t, SheetScenarioModel, scenarioSheet(0.4)[:11]))
	require.Zero(t, short.result.Created+short.result.Skipped+short.result.Updated)
}

func TestProperties(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	rows := [][]any{
		{"PROPERTIES"},
		{"Property", "SqFt", "Budget", "Debt", nil, "ARV"},
		{"412 Oak St", 1850, 210000, 150000, nil, 300000, nil, nil, nil, "Sell", "First Bank", "Listed"},
		{"9 Elm Ct", nil, 90000, nil, nil, 0},
		{"TOTAL", nil, 300000},
	}
	parseInTx(t, ctx, &propertiesTab{env}, fixtureRows(t, SheetProperties, rows))
	require.Equal(t, 2, env.result.Created)
	require.Equal(t, 1, env.result.Skipped)

	var oak models.Property
	require.NoError(t, db.Where("address = ?", "412 Oak St").First(&oak).Error)
	require.Equal(t, stateTennessee, oak.State)
	require.True(t, oak.PurchasePrice.Equal(dec("210000")))
	require.True(t, oak.ARV.Equal(dec("300000")))
	require.True(t, oak.CurrentValue.Equal(dec("300000")))
	require.True(t, oak.Equity.Valid)
	require.True(t, oak.Equity.Decimal.Equal(dec("150000")))
	require.True(t, oak.LTV.Valid)
	require.True(t, oak.LTV.Decimal.Equal(dec("0.5")), "ltv %s", oak.LTV.Decimal)
	require.Equal(t, "Sell", oak.ExitStrategy)
	require.Equal(t, "Lender: First Bank | SqFt: 1850 | Status: Listed", oak.Notes)

	var elm models.Property
	require.NoError(t, db.Where("address = ?", "9 Elm Ct").First(&elm).Error)
	require.False(t, elm.Equity.Valid)
	require.False(t, elm.LTV.Valid)

	again := newTestEnv()
	parseInTx(t, ctx, &propertiesTab{again}, fixtureRows(t, SheetProperties, rows))
	require.Zero(t, again.result.Created)
	require.Equal(t, 3, again.result.Skipped)
}

func TestDebtPayoff_MatchesByCreditorPrefix(t *testing.T) {
	ctx, db := newTestDB(t)
	require.NoError(t, db.Create(&models.Debt{Name: "Acme Card Services", DebtType: models.DebtTypeCreditCard, IsActive: true}).Error)

	rows := [][]any{
		{"DEBT PAYOFF"},
		{"Plan"},
		{"Creditor", nil, "Settlement", nil, nil, nil, nil, "Order", "Strategy"},
		{"Acme Card (settled 40%)", nil, 2000, nil, nil, nil, nil, "1", "Snowball"},
		{"Nobody Lending", nil, 500},
		{"TOTAL", nil, 2500},
	}
	env := newTestEnv()
	parseInTx(t, ctx, &debtPayoffTab{env}, fixtureRows(t, SheetDebtPayoff, rows))
	require.Equal(t, 1, env.result.Updated)
	require.Equal(t, 2, env.result.Skipped)
	require.Zero(t, env.result.Created)

	var debt models.Debt
	require.NoError(t, db.First(&debt).Error)
	require.True(t, debt.SettlementOffer.Valid)
	require.True(t, debt.SettlementOffer.Decimal.Equal(dec("2000")))
	require.Equal(t, "1", debt.PayoffOrder)
	require.Equal(t, "Snowball", debt.Strategy)
	require.Equal(t, [2]string{"", "2000"}, auditTrail(t, db, "debts", debt.ID)["settlement_offer"])
	require.EqualValues(t, 1, countRows(t, db, &models.Debt{}))

	again := newTestEnv()
	parseInTx(t, ctx, &debtPayoffTab{again}, fixtureRows(t, SheetDebtPayoff, rows))
	require.Zero(t, again.result.Updated)
	require.Equal(t, 3, again.result.Skipped)
}

func dailyInputsSheet(balance float64) [][]any {
	return [][]any{
		{"DAILY INPUTS"},
		{"Date", "3/1/2026"},
		{"Prepared by", "Office"},
		{"Bank"},
		{"Account", "Operating"},
		{"Pending deposits", 0},
		{"Pending checks", 0},
		{"Opening balance", balance},
		{"Notes", "none"},
		{"Signed", "Y"},
	}
}

func TestDailyInputs(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	parseInTx(t, ctx, &dailyInputsTab{env}, fixtureRows(t, SheetDailyInputs, dailyInputsSheet(18250.75)))
	require.Equal(t, 1, env.result.Created)

	var snap models.CashSnapshot
	require.NoError(t, db.First(&snap).Error)
	require.True(t, snap.SnapshotDate.Equal(day(2026, time.March, 1)))
	require.Equal(t, dailyInputsAccount, snap.AccountName)
	require.True(t, snap.Balance.Equal(dec("18250.75")), "balance %s", snap.Balance)
	require.Equal(t, dailyInputsNotes, snap.Notes)

	again := newTestEnv()
	parseInTx(t, ctx, &dailyInputsTab{again}, fixtureRows(t, SheetDailyInputs, dailyInputsSheet(19000)))
	require.Equal(t, 1, again.result.Updated)
	require.EqualValues(t, 1, countRows(t, db, &models.CashSnapshot{}))
	require.Equal(t, [2]string{"18250.75", "19000"}, auditTrail(t, db, "cash_snapshots", snap.ID)["balance"])

	short := newTestEnv()
	parseInTx(t, ctx, &dailyInputsTab{short}, fixtureRows(t, SheetDailyInputs, dailyInputsSheet(1)[:9]))
	require.Zero(t, short.result.Created+short.result.Updated+short.result.Skipped)
}

func cashFlowSheet() [][]any {
	return [][]any{
		{"CASH FLOW 13WK"},
		{"Forecast"},
		{"Category", nil, "Week 1\n3/2", "Week 2\n3/9", "Week 3"},
		{"Draw receipts", nil, 25000, 0, 1000},
		{"Subcontractors", nil, -8000},
		{"TOTAL", nil, 17000},
	}
}

func TestCashFlow_WeekHeaders(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	parseInTx(t, ctx, &cashFlowTab{env}, fixtureRows(t, SheetCashFlow13Wk, cashFlowSheet()))
	require.Equal(t, 3, env.result.Created)

	var lines []models.CashForecastLine
	require.NoError(t, db.Order("id").Find(&lines).Error)
	require.Len(t, lines, 3)

	receipts := lines[0]
	require.Equal(t, "Draw receipts", receipts.Category)
	require.True(t, receipts.WeekStarting.Equal(day(2026, time.March, 2)))
	require.True(t, receipts.AmountIn.Equal(dec("25000")))
	require.True(t, receipts.AmountOut.IsZero())
	require.True(t, receipts.Net.Equal(dec("25000")))

	undated := lines[1]
	require.True(t, undated.WeekStarting.Equal(day(2026, time.March, 1)), "headers without a date use today, got %s", undated.WeekStarting)
	require.True(t, undated.Net.Equal(dec("1000")))

	subs := lines[2]
	require.Equal(t, "Subcontractors", subs.Category)
	require.True(t, subs.WeekStarting.Equal(day(2026, time.March, 2)))
	require.True(t, subs.AmountIn.IsZero())
	require.True(t, subs.AmountOut.Equal(dec("8000")))
	require.True(t, subs.Net.Equal(dec("-8000")))

	again := newTestEnv()
	parseInTx(t, ctx, &cashFlowTab{again}, fixtureRows(t, SheetCashFlow13Wk, cashFlowSheet()))
	require.Zero(t, again.result.Created)
	require.Equal(t, 3, again.result.Skipped)
	require.EqualValues(t, 3, countRows(t, db, &models.CashForecastLine{}))
}

func recurringSheet(verizon float64) [][]any {
	return [][]any{
		{"RECURRING EXP"},
		{"Monthly commitments"},
		{"Name", "Category", "Frequency", "Amount", nil, "AutoPay", nil, "Method", "Status", "Notes"},
		{"Verizon", "Phones", "Monthly", verizon, nil, "Y", nil, "Card", "Active", "2 lines"},
		{"Payroll service", "Admin", "Bi-Weekly", 120, nil, "N", nil, "ACH", "CANCELLED"},
		{"TOTAL", nil, nil, 409.5},
	}
}

func TestRecurringExp_UpsertByDescription(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	parseInTx(t, ctx, &recurringExpTab{env}, fixtureRows(t, SheetRecurringExp, recurringSheet(289.5)))
	require.Equal(t, 2, env.result.Created)
	require.Equal(t, 1, env.result.Skipped)

	var verizon, payroll models.RecurringExpense
	require.NoError(t, db.Where("description = ?", "Verizon").First(&verizon).Error)
	require.NoError(t, db.Where("description = ?", "Payroll service").First(&payroll).Error)

	require.Equal(t, models.FrequencyMonthly, verizon.Frequency)
	require.True(t, verizon.IsActive)
	require.NotNil(t, verizon.VendorID)
	require.True(t, verizon.Amount.Equal(dec("289.5")))
	require.Equal(t, "Cat: Phones | AutoPay: Y | Method: Card | Status: Active | 2 lines", verizon.Notes)

	require.Equal(t, models.FrequencyBiweekly, payroll.Frequency)
	require.False(t, payroll.IsActive)
	require.Equal(t, "Cat: Admin | AutoPay: N | Method: ACH | Status: CANCELLED | ", payroll.Notes)

	again := newTestEnv()
	parseInTx(t, ctx, &recurringExpTab{again}, fixtureRows(t, SheetRecurringExp, recurringSheet(310)))
	require.Zero(t, again.result.Created)
	require.Equal(t, 1, again.result.Updated)
	require.Equal(t, 2, again.result.Skipped)
	require.EqualValues(t, 2, countRows(t, db, &models.RecurringExpense{}))
	require.EqualValues(t, 2, countRows(t, db, &models.Vendor{}))
	require.Equal(t, [2]string{"289.5", "310"}, auditTrail(t, db, "recurring_expenses", verizon.ID)["amount"])
}

func monthlyPLSheet(marchDraws int) [][]any {
	return [][]any{
		{"MONTHLY P&L"},
		{"FY"},
		{nil, "Actuals"},
		{"Account", "Jan", "Feb", "Mar"},
		{"Construction draws", 50000, 0, marchDraws},
		{"Materials", 12000},
		{"Office rent", 1500, 1500},
		{"TOTAL", 63500, 1500, marchDraws},
	}
}

func TestPL_PivotsMonthsIntoEntries(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	monthly := &plTab{tabEnv: env, schema: monthlyPLSchema, division: models.DivisionCompanyWide}
	parseInTx(t, ctx, monthly, fixtureRows(t, SheetMonthlyPL, monthlyPLSheet(62000)))
	require.Equal(t, 5, env.result.Created)

	var draws []models.PLEntry
	require.NoError(t, db.Where("account_name = ?", "Construction draws").Order("period_month").Find(&draws).Error)
	require.Len(t, draws, 2)
	require.Equal(t, 1, draws[0].PeriodMonth)
	require.Equal(t, 3, draws[1].PeriodMonth)
	require.Equal(t, plYear, draws[1].PeriodYear)
	require.Equal(t, models.DivisionCompanyWide, draws[1].Division)
	require.Equal(t, "revenue", draws[1].Category)
	require.False(t, draws[1].IsBudget)
	require.True(t, draws[1].Amount.Equal(dec("62000")))

	var materials models.PLEntry
	require.NoError(t, db.Where("account_name = ?", "Materials").First(&materials).Error)
	require.Equal(t, "cost_of_goods", materials.Category)

	mf := newTestEnv()
	rows := [][]any{
		{"MULTIFAMILY P&L"}, {"Victory Crossings"}, {nil, "FY"}, {nil, "Actuals"}, {nil, "Unaudited"},
		{"Account", "Jan"},
		{"Office rent", 700},
	}
	parseInTx(t, ctx, &plTab{tabEnv: mf, schema: multifamilyPLSchema, division: models.DivisionMultifamily},
		fixtureRows(t, SheetMultifamilyPL, rows))
	require.Equal(t, 1, mf.result.Created)

	var rent []models.PLEntry
	require.NoError(t, db.Where("account_name = ? AND period_month = ?", "Office rent", 1).Order("division").Find(&rent).Error)
	require.Len(t, rent, 2)
	require.Equal(t, models.DivisionCompanyWide, rent[0].Division)
	require.Equal(t, "expense", rent[0].Category)
	require.Equal(t, models.DivisionMultifamily, rent[1].Division)
	require.True(t, rent[1].Amount.Equal(dec("700")))

	again := newTestEnv()
	parseInTx(t, ctx, &plTab{tabEnv: again, schema: monthlyPLSchema, division: models.DivisionCompanyWide},
		fixtureRows(t, SheetMonthlyPL, monthlyPLSheet(65000)))
	require.Zero(t, again.result.Created)
	require.Equal(t, 1, again.result.Updated)
	require.Equal(t, 4, again.result.Skipped)
	require.Equal(t, [2]string{"62000", "65000"}, auditTrail(t, db, "pl_entries", draws[1].ID)["amount"])
}

func TestCOA_ClassifiesBlankTypes(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	rows := [][]any{
		{"CHART OF ACCOUNTS"},
		{"QuickBooks export"},
		{"Number", "Name", "Type", "Notes"},
		{"1000", "Operating Checking", "Bank", "main"},
		{"5000", "Cost of Materials"},
		{"6100", "Office Supplies"},
		{"1200", "Accounts Receivable"},
		{nil, "No number"},
	}
	parseInTx(t, ctx, &coaTab{env}, fixtureRows(t, SheetCOA, rows))
	require.Equal(t, 4, env.result.Created)
	require.Equal(t, 1, env.result.Skipped)

	var accounts []models.ChartOfAccount
	require.NoError(t, db.Order("account_number").Find(&accounts).Error)
	got := make(map[string]string, len(accounts))
	for _, a := range accounts {
		got[a.AccountNumber] = a.AccountType
	}
	require.Equal(t, map[string]string{
		"1000": "Bank",
		"1200": "Accounts Receivable",
		"5000": "Cost of Goods Sold",
		"6100": "Expense",
	}, got)
	require.Equal(t, "main", accounts[0].Notes)

	again := newTestEnv()
	parseInTx(t, ctx, &coaTab{again}, fixtureRows(t, SheetCOA, rows))
	require.Zero(t, again.result.Created)
	require.Equal(t, 5, again.result.Skipped)
}

func arAgingSheet(jonesBucket string) [][]any {
	return [][]any{
		{"AR AGING"},
		{"Client", "Amount", "Issued", "Due", "Invoice", "Bucket", nil, "Notes"},
		{"Smith Family", 42000, "01/15/2026", "02/14/2026", "INV-1042", "31-60", nil, "follow up"},
		{"Jones Remodel LLC", 8500, "02/20/2026", "03/22/2026", nil, jonesBucket},
		{"Zero Co", 0},
		{"TOTAL", 50500},
	}
}

func TestARAging_BucketsAndRerun(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	parseInTx(t, ctx, &arAgingTab{env}, fixtureRows(t, SheetARAging, arAgingSheet("0-30")))
	require.Equal(t, 2, env.result.Created)
	require.Equal(t, 2, env.result.Skipped)

	var smith, jones models.Invoice
	require.NoError(t, db.Where("client_name = ?", "Smith Family").First(&smith).Error)
	require.NoError(t, db.Where("client_name = ?", "Jones Remodel LLC").First(&jones).Error)

	require.Equal(t, "INV-1042", smith.InvoiceNumber)
	require.Equal(t, models.InvoiceOverdue, smith.Status)
	require.True(t, smith.Balance.Equal(dec("42000")))
	require.True(t, smith.DateIssued.Equal(day(2026, time.January, 15)))
	require.True(t, smith.DateDue.Equal(day(2026, time.February, 14)))
	require.Equal(t, "Client: Smith Family | Bucket: 31-60 | follow up", smith.Notes)

	require.Equal(t, "AR-Jones Remo", jones.InvoiceNumber)
	require.Equal(t, models.InvoiceSent, jones.Status)

	again := newTestEnv()
	parseInTx(t, ctx, &arAgingTab{again}, fixtureRows(t, SheetARAging, arAgingSheet("31-60")))
	require.Zero(t, again.result.Created)
	require.Equal(t, 1, again.result.Updated)
	require.Equal(t, 3, again.result.Skipped)
	require.EqualValues(t, 2, countRows(t, db, &models.Invoice{}))
	require.Equal(t, [2]string{models.InvoiceSent, models.InvoiceOverdue},
		auditTrail(t, db, "invoices", jones.ID)["status"])
}
