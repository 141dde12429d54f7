package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sovSheet(siteWork int) [][]any {
	return [][]any{
		{"SOV DRAW BUILDER"},
		{"Schedule of values by project"},
		{"Prepared for lender draws"},
		{"Division", "Scheduled", "Prior", "Balance", "%", nil, "This Period", nil, "Stored"},
		{"Site Work", 999},
		{"WG1 — Walnut Grove Lot 1"},
		{"Division", "Scheduled"},
		{"Site Work", siteWork, 2000, 7000, 0.3, nil, 1000, nil, 250},
		{"Framing", 20000, 0, 20000, "25%", nil, 0, nil, 0},
		{"TOTAL WG1", 30000},
		{"KA2 -- 205 Kerr Ave Spec"},
		{"Foundation", 15000, 5000, 10000, 0.3333},
	}
}

func TestSovDrawBuilder_LinesRestartPerSection(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	parseInTx(t, ctx, &sovDrawBuilderTab{env}, fixtureRows(t, SheetSOVDrawBuilder, sovSheet(10000)))
	require.Equal(t, 3, env.result.Created)

	var lines []models.SOVLine
	require.NoError(t, db.Order("project_id, line_number").Find(&lines).Error)
	require.Len(t, lines, 3)

	var wg1, ka2 models.Project
	require.NoError(t, db.Where("code = ?", "WG1").First(&wg1).Error)
	require.NoError(t, db.Where("code = ?", "KA2").First(&ka2).Error)
	require.Equal(t, "WG1 — Walnut Grove Lot 1", wg1.Name)

	site := lines[0]
	require.Equal(t, wg1.ID, site.ProjectID)
	require.Equal(t, 1, site.LineNumber)
	require.Equal(t, "Site Work", site.Description)
	require.True(t, site.ScheduledValue.Equal(dec("10000")), "scheduled %s", site.ScheduledValue)
	require.True(t, site.TotalCompleted.Equal(dec("3000")), "total %s", site.TotalCompleted)
	require.True(t, site.PercentComplete.Equal(dec("30")), "percent %s", site.PercentComplete)
	require.True(t, site.StoredMaterials.Equal(dec("250")))
	require.True(t, site.BalanceToFinish.Equal(dec("7000")))

	framing := lines[1]
	require.Equal(t, 2, framing.LineNumber)
	require.True(t, framing.PercentComplete.IsZero(), "text percentages are ignored")

	foundation := lines[2]
	require.Equal(t, ka2.ID, foundation.ProjectID)
	require.Equal(t, 1, foundation.LineNumber)
	require.True(t, foundation.PercentComplete.Equal(dec("33.33")), "percent %s", foundation.PercentComplete)
}

func TestSovDrawBuilder_RerunUpdatesChangedLine(t *testing.T) {
	ctx, db := newTestDB(t)

	parseInTx(t, ctx, &sovDrawBuilderTab{newTestEnv()}, fixtureRows(t, SheetSOVDrawBuilder, sovSheet(10000)))

	same := newTestEnv()
	parseInTx(t, ctx, &sovDrawBuilderTab{same}, fixtureRows(t, SheetSOVDrawBuilder, sovSheet(10000)))
	require.Zero(t, same.result.Created)
	require.Zero(t, same.result.Updated)
	require.Equal(t, 3, same.result.Skipped)

	changed := newTestEnv()
	parseInTx(t, ctx, &sovDrawBuilderTab{changed}, fixtureRows(t, SheetSOVDrawBuilder, sovSheet(12500)))
	require.Equal(t, 1, changed.result.Updated)
	require.EqualValues(t, 3, countRows(t, db, &models.SOVLine{}))

	var site models.SOVLine
	require.NoError(t, db.Where("description = ?", "Site Work").First(&site).Error)
	require.Equal(t, [2]string{"10000", "12500"}, auditTrail(t, db, "sov_lines", site.ID)["scheduled_value"])
}

func scheduleSheet() [][]any {
	return [][]any{
		{"PROJECT SCHEDULE"},
		{"As of 3/1/2026"},
		{"Milestone", "Planned", "Actual"},
		{"PROJECT: WG1 — Walnut Grove Lot 1"},
		{"Milestone", "Planned", "Actual", nil, nil, "Responsible", "Notes"},
		{"Foundation pour", "01/10/2026", "01/12/2026", nil, nil, "Sam", "poured early"},
		{"Framing", "02/15/2026", nil, nil, nil, "Crew A"},
		{"Drywall", "04/01/2026"},
		{"Punch list", "05/01/2026", "02/20/2026"},
		{"PROJECT: KA2 — 205 Kerr Ave"},
		{"Permits", "03/15/2026"},
	}
}

func TestProjectSchedule_StatusAndSortOrder(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	parseInTx(t, ctx, &projectScheduleTab{env}, fixtureRows(t, SheetProjectSchedule, scheduleSheet()))
	require.Equal(t, 5, env.result.Created)

	var milestones []models.ProjectMilestone
	require.NoError(t, db.Order("id").Find(&milestones).Error)
	require.Len(t, milestones, 5)

	type got struct {
		task   string
		status string
		order  int
	}
	var seen []got
	for _, m := range milestones {
		seen = append(seen, got{m.TaskName, m.Status, m.SortOrder})
	}
	require.Equal(t, []got{
		{"Foundation pour", models.MilestoneCompleted, 1},
		{"Framing", models.MilestoneDelayed, 2},
		{"Drywall", models.MilestoneNotStarted, 3},
		{"Punch list", models.MilestoneCompleted, 4},
		{"Permits", models.MilestoneNotStarted, 1},
	}, seen)

	first := milestones[0]
	require.NotNil(t, first.PlannedStart)
	require.True(t, first.PlannedStart.Equal(day(2026, time.January, 10)))
	require.True(t, first.ActualEnd.Equal(day(2026, time.January, 12)))
	require.Equal(t, "Sam", first.AssignedTo)
	require.Equal(t, "poured early", first.Notes)

	var ka2 models.Project
	require.NoError(t, db.Where("code = ?", "KA2").First(&ka2).Error)
	require.Equal(t, ka2.ID, milestones[4].ProjectID)
}

func TestProjectSchedule_Rerun(t *testing.T) {
	ctx, db := newTestDB(t)

	parseInTx(t, ctx, &projectScheduleTab{newTestEnv()}, fixtureRows(t, SheetProjectSchedule, scheduleSheet()))

	again := newTestEnv()
	parseInTx(t, ctx, &projectScheduleTab{again}, fixtureRows(t, SheetProjectSchedule, scheduleSheet()))
	require.Zero(t, again.result.Created)
	require.Zero(t, again.result.Updated)
	require.Equal(t, 5, again.result.Skipped)
	require.EqualValues(t, 5, countRows(t, db, &models.ProjectMilestone{}))

	// By April both open milestones have slipped.
	later := newTestEnv()
	later.now = func() time.Time { return time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC) }
	parseInTx(t, ctx, &projectScheduleTab{later}, fixtureRows(t, SheetProjectSchedule, scheduleSheet()))
	require.Equal(t, 2, later.result.Updated)
	require.Equal(t, 3, later.result.Skipped)

	var drywall models.ProjectMilestone
	require.NoError(t, db.Where("task_name = ?", "Drywall").First(&drywall).Error)
	require.Equal(t, models.MilestoneDelayed, drywall.Status)
	require.Equal(t, [2]string{models.MilestoneNotStarted, models.MilestoneDelayed},
		auditTrail(t, db, "project_milestones", drywall.ID)["status"])
}

func retainageSheet() [][]any {
	return [][]any{
		{"RETAINAGE TRACKER"},
		{"RETAINAGE HELD BY LENDERS (Receivable)"},
		{"Project", "Lender", "Contract", "Billed", "Ret %", "Held", "Release"},
		{"WG1", "First Bank", nil, 100000, 0.05, nil, "At CO"},
		{"KA2", "Builders Capital", nil, 40000, nil, nil, "Final draw"},
		{"ZZ9", "Nobody", nil, 5000, 0.1},
		{"TOTAL", nil, nil, 145000},
		{"=SUM(D4:D6)"},
		{"RETAINAGE YOU OWE SUBS (Payable)"},
		{"Sub/Vendor", "Project", "Contract", "Paid", "Ret %"},
		{"Acme Framing", "WG1", nil, 20000, 0.1, nil, "30 days after CO"},
		{"Blue Plumbing", nil, nil, 8000},
	}
}

func TestRetainage_ReceivableAndPayable(t *testing.T) {
	ctx, db := newTestDB(t)
	wg1 := seedProject(t, db, "WG1")
	seedProject(t, db, "KA2")
	env := newTestEnv()

	parseInTx(t, ctx, &retainageTab{env}, fixtureRows(t, SheetRetainage, retainageSheet()))
	require.Equal(t, 4, env.result.Created)
	require.EqualValues(t, 2, countRows(t, db, &models.Project{}), "unknown receivable projects are not created")

	var entries []models.RetainageEntry
	require.NoError(t, db.Order("id").Find(&entries).Error)
	require.Len(t, entries, 4)

	bank := entries[0]
	require.Equal(t, models.RetainageReceivable, bank.Kind)
	require.Equal(t, "First Bank", bank.Party)
	require.Equal(t, wg1, *bank.ProjectID)
	require.True(t, bank.AmountHeld.Equal(dec("5000")), "held %s", bank.AmountHeld)
	require.True(t, bank.Balance.Equal(bank.AmountHeld))
	require.Equal(t, "Lender: First Bank | Release: At CO | Type: receivable", bank.Notes)

	builders := entries[1]
	require.Equal(t, "Builders Capital", builders.Party)
	require.True(t, builders.AmountHeld.Equal(dec("4000")), "missing percent falls back to 10%%, got %s", builders.AmountHeld)

	acme := entries[2]
	require.Equal(t, models.RetainagePayable, acme.Kind)
	require.Equal(t, "Acme Framing", acme.Party)
	require.NotNil(t, acme.VendorID)
	require.Equal(t, wg1, *acme.ProjectID)
	require.True(t, acme.AmountHeld.Equal(dec("2000")))
	require.Equal(t, "Release: 30 days after CO | Type: payable", acme.Notes)

	plumbing := entries[3]
	require.Nil(t, plumbing.ProjectID)
	require.True(t, plumbing.AmountHeld.Equal(dec("800")))

	var vendor models.Vendor
	require.NoError(t, db.First(&vendor, *acme.VendorID).Error)
	require.Equal(t, "Acme Framing", vendor.Name)
}

func TestRetainage_RerunAndShortSheet(t *testing.T) {
	ctx, db := newTestDB(t)
	seedProject(t, db, "WG1")
	seedProject(t, db, "KA2")

	parseInTx(t, ctx, &retainageTab{newTestEnv()}, fixtureRows(t, SheetRetainage, retainageSheet()))

	again := newTestEnv()
	parseInTx(t, ctx, &retainageTab{again}, fixtureRows(t, SheetRetainage, retainageSheet()))
	require.Zero(t, again.result.Created)
	require.Equal(t, 4, again.result.Skipped)
	require.EqualValues(t, 4, countRows(t, db, &models.RetainageEntry{}))

	short := newTestEnv()
	parseInTx(t, ctx, &retainageTab{short}, fixtureRows(t, SheetRetainage, retainageSheet()[:5]))
	require.Zero(t, short.result.Created+short.result.Skipped+short.result.Updated)
}

func budgetsSheet(budget int, pm string) [][]any {
	return [][]any{
		{"PROJECT BUDGETS"},
		{"Project", "Budget", "Released", nil, nil, nil, "PM", "Notes"},
		{"Walnut Grove Lot 1 (WG1)", budget, 120000, nil, nil, nil, pm, "Lot 1"},
		{"TOTAL", budget},
	}
}

func TestProjectBudgets_CreateThenAuditedUpdate(t *testing.T) {
	ctx, db := newTestDB(t)

	first := newTestEnv()
	parseInTx(t, ctx, &projectBudgetsTab{first}, fixtureRows(t, SheetProjectBudgets, budgetsSheet(350000, "Sam")))
	require.Equal(t, 1, first.result.Created)
	require.Equal(t, 1, first.result.Skipped)

	var p models.Project
	require.NoError(t, db.Where("code = ?", "WG1").First(&p).Error)
	require.Equal(t, "Walnut Grove Lot 1 (WG1)", p.Name)
	require.Equal(t, stateTennessee, p.State)
	require.True(t, p.BudgetTotal.Equal(dec("350000")))
	require.True(t, p.ContractAmount.Equal(dec("120000")))
	require.Equal(t, "Sam", p.ProjectManager)

	second := newTestEnv()
	parseInTx(t, ctx, &projectBudgetsTab{second}, fixtureRows(t, SheetProjectBudgets, budgetsSheet(360000, "Alex")))
	require.Equal(t, 1, second.result.Updated)
	require.Zero(t, second.result.Created)

	trail := auditTrail(t, db, "projects", p.ID)
	require.Len(t, trail, 2)
	require.Equal(t, [2]string{"350000", "360000"}, trail["budget_total"])
	require.Equal(t, [2]string{"Sam", "Alex"}, trail["project_manager"])

	third := newTestEnv()
	parseInTx(t, ctx, &projectBudgetsTab{third}, fixtureRows(t, SheetProjectBudgets, budgetsSheet(360000, "Alex")))
	require.Zero(t, third.result.Updated)
	require.Equal(t, 2, third.result.Skipped)
	require.Len(t, auditTrail(t, db, "projects", p.ID), 2)
}

func drawSheet() [][]any {
	return [][]any{
		{"DRAW TRACKER"},
		{"Lender draws"},
		{nil, "Updated weekly"},
		{"#", "Project", "Phase", "Amount", "Status"},
		{1, "WG1", "Draw 1 - Foundation", 25000, "RELEASED 1/15"},
		{2, "WG1", "Draw 2 - Framing", 30000, "Pending"},
		{7, "KA2", "Final inspection", 5000},
		{nil, "WG1"},
	}
}

func TestDrawTracker(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	parseInTx(t, ctx, &drawTrackerTab{env}, fixtureRows(t, SheetDrawTracker, drawSheet()))
	require.Equal(t, 3, env.result.Created)
	require.Equal(t, 1, env.result.Skipped)

	var apps []models.PayApp
	require.NoError(t, db.Order("id").Find(&apps).Error)
	require.Len(t, apps, 3)

	require.Equal(t, 1, apps[0].Number)
	require.Equal(t, models.PayAppStatusPaid, apps[0].Status)
	require.True(t, apps[0].AmountApproved.Equal(dec("25000")))
	require.True(t, apps[0].NetPayment.Equal(dec("25000")))
	require.Equal(t, "Draw 1 - Foundation", apps[0].Notes)

	require.Equal(t, 2, apps[1].Number)
	require.Equal(t, models.PayAppStatusDraft, apps[1].Status)
	require.True(t, apps[1].AmountApproved.IsZero())

	require.Equal(t, 7, apps[2].Number, "phases without a draw number use the sequence column")

	again := newTestEnv()
	parseInTx(t, ctx, &drawTrackerTab{again}, fixtureRows(t, SheetDrawTracker, drawSheet()))
	require.Zero(t, again.result.Created)
	require.Equal(t, 4, again.result.Skipped)
	require.EqualValues(t, 3, countRows(t, db, &models.PayApp{}))
}

func changeOrderSheet(co2Status string) [][]any {
	return [][]any{
		{"CHANGE ORDERS"},
		{"Log"},
		{nil},
		{"CO #", "Project", "Submitted", "Description", "Requested By", "Material", "Labor", "Sub"},
		wide(17, map[int]any{
			0: "CO-001", 1: "WG1", 2: "01/20/2026", 3: "Add covered porch", 4: "Owner",
			5: 1500, 6: 800, 7: 1200, 11: "Approved by owner", 12: "01/25/2026", 15: "Owner request", 16: "rush",
		}),
		wide(17, map[int]any{0: "CO-002", 1: "WG1", 2: "02/02/2026", 3: "Upgrade tile", 4: "Owner", 5: 400, 11: co2Status}),
		wide(17, map[int]any{0: "CO-003", 1: "KA2", 3: "Delete skylight", 11: "Rejected"}),
		{nil, "WG1", "01/01/2026"},
	}
}

func TestChangeOrders_TotalsAndStatus(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	parseInTx(t, ctx, &changeOrdersTab{env}, fixtureRows(t, SheetChangeOrders, changeOrderSheet("Pending review")))
	require.Equal(t, 3, env.result.Created)
	require.Equal(t, 1, env.result.Skipped)

	var cos []models.ChangeOrder
	require.NoError(t, db.Order("co_number").Find(&cos).Error)
	require.Len(t, cos, 3)

	porch := cos[0]
	require.True(t, porch.Amount.Equal(dec("3500")), "amount %s", porch.Amount)
	require.Equal(t, models.ChangeOrderApproved, porch.Status)
	require.Equal(t, "Add covered porch", porch.Title)
	require.Equal(t, "Owner", porch.RequestedBy)
	require.True(t, porch.DateSubmitted.Equal(day(2026, time.January, 20)))
	require.True(t, porch.DateApproved.Equal(day(2026, time.January, 25)))
	require.Equal(t, "Mat: $1,500.00 | Lab: $800.00 | Sub: $1,200.00 | Reason: Owner request | rush", porch.Notes)

	require.Equal(t, models.ChangeOrderPending, cos[1].Status)
	require.True(t, cos[1].Amount.Equal(dec("400")))
	require.Equal(t, models.ChangeOrderRejected, cos[2].Status)
	require.True(t, cos[2].Amount.IsZero())
	require.Nil(t, cos[2].DateSubmitted)
}

func TestChangeOrders_RerunAuditsStatusChange(t *testing.T) {
	ctx, db := newTestDB(t)

	parseInTx(t, ctx, &changeOrdersTab{newTestEnv()}, fixtureRows(t, SheetChangeOrders, changeOrderSheet("Pending review")))

	again := newTestEnv()
	parseInTx(t, ctx, &changeOrdersTab{again}, fixtureRows(t, SheetChangeOrders, changeOrderSheet("Approved")))
	require.Zero(t, again.result.Created)
	require.Equal(t, 1, again.result.Updated)
	require.Equal(t, 3, again.result.Skipped)
	require.EqualValues(t, 3, countRows(t, db, &models.ChangeOrder{}))

	var tile models.ChangeOrder
	require.NoError(t, db.Where("co_number = ?", "CO-002").First(&tile).Error)
	require.Equal(t, [2]string{models.ChangeOrderPending, models.ChangeOrderApproved},
		auditTrail(t, db, "change_orders", tile.ID)["status"])
}

func lienWaiverSheet(plumbingUnconditional bool) [][]any {
	plumbing := map[int]any{0: "Blue Plumbing", 1: "WG1", 2: "Draw 2", 3: 3000, 4: "Y", 5: "02/03/2026", 10: "01/31/2026", 12: "Medium"}
	if plumbingUnconditional {
		plumbing[8] = "Y"
		plumbing[9] = "02/12/2026"
	}
	return [][]any{
		{"LIEN WAIVERS"},
		{"Tracking"},
		{nil, "by draw"},
		{"Vendor", "Project", "Draw", "Amount", "Conditional"},
		{"", "", "", "", "Received", "Date"},
		wide(14, map[int]any{
			0: "Acme Framing", 1: "WG1", 2: "Draw 2", 3: 12000, 4: "Y", 5: "02/01/2026",
			8: "Y", 9: "02/10/2026", 10: "01/31/2026", 12: "Low", 13: "ok",
		}),
		wide(14, plumbing),
		{"Sparky Electric", "ZZ9", "Draw 1", 500},
		{"TOTAL", nil, nil, 15500},
	}
}

func TestLienWaivers_UnconditionalWins(t *testing.T) {
	ctx, db := newTestDB(t)
	wg1 := seedProject(t, db, "WG1")
	env := newTestEnv()

	parseInTx(t, ctx, &lienWaiversTab{env}, fixtureRows(t, SheetLienWaivers, lienWaiverSheet(false)))
	require.Equal(t, 3, env.result.Created)
	require.Equal(t, 1, env.result.Skipped)

	var waivers []models.LienWaiver
	require.NoError(t, db.Order("id").Find(&waivers).Error)
	require.Len(t, waivers, 3)

	acme := waivers[0]
	require.Equal(t, "unconditional", acme.WaiverType)
	require.Equal(t, wg1, *acme.ProjectID)
	require.Equal(t, "Draw 2", acme.DrawRef)
	require.True(t, acme.ReceivedDate.Equal(day(2026, time.February, 10)))
	require.True(t, acme.ThroughDate.Equal(day(2026, time.January, 31)))
	require.Equal(t, "Risk: Low | Draw: Draw 2 | ok", acme.Notes)

	plumbing := waivers[1]
	require.Equal(t, "conditional", plumbing.WaiverType)
	require.True(t, plumbing.ReceivedDate.Equal(day(2026, time.February, 3)))

	sparky := waivers[2]
	require.Empty(t, sparky.WaiverType)
	require.Nil(t, sparky.ProjectID, "unknown project codes are left unset")

	again := newTestEnv()
	parseInTx(t, ctx, &lienWaiversTab{again}, fixtureRows(t, SheetLienWaivers, lienWaiverSheet(true)))
	require.Zero(t, again.result.Created)
	require.Equal(t, 1, again.result.Updated)
	require.EqualValues(t, 3, countRows(t, db, &models.LienWaiver{}))

	trail := auditTrail(t, db, "lien_waivers", plumbing.ID)
	require.Equal(t, [2]string{"conditional", "unconditional"}, trail["waiver_type"])
	require.Equal(t, [2]string{"2026-02-03", "2026-02-12"}, trail["received_date"])
}

func phaseSyncSheet(status string) [][]any {
	return [][]any{
		{"PHASE SYNC"},
		{"Material orders vs schedule"},
		{nil, "week"},
		{"Project", "Phase", "Material", "Supplier", "Status", "Start"},
		{"WG1", "Framing", "Lumber package", "84 Lumber", status, "02/01/2026", nil, nil, "02/20/2026"},
		{"WG1", nil, "Trusses"},
	}
}

func TestPhaseSync(t *testing.T) {
	ctx, db := newTestDB(t)
	env := newTestEnv()

	parseInTx(t, ctx, &phaseSyncTab{env}, fixtureRows(t, SheetPhaseSync, phaseSyncSheet("Ordered")))
	require.Equal(t, 1, env.result.Created)
	require.Equal(t, 1, env.result.Skipped)

	var entry models.PhaseSyncEntry
	require.NoError(t, db.First(&entry).Error)
	require.Equal(t, "Framing", entry.PhaseName)
	require.Equal(t, "Ordered", entry.Status)
	require.True(t, entry.PlannedStart.Equal(day(2026, time.February, 1)))
	require.True(t, entry.PlannedEnd.Equal(day(2026, time.February, 20)))
	require.Equal(t, "Material: Lumber package | Supplier: 84 Lumber", entry.Notes)

	again := newTestEnv()
	parseInTx(t, ctx, &phaseSyncTab{again}, fixtureRows(t, SheetPhaseSync, phaseSyncSheet("Delivered")))
	require.Equal(t, 1, again.result.Updated)
	require.EqualValues(t, 1, countRows(t, db, &models.PhaseSyncEntry{}))
	require.Equal(t, [2]string{"Ordered", "Delivered"}, auditTrail(t, db, "phase_sync_entries", entry.ID)["status"])
}
