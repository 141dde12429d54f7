package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DebtTypeCreditCard       = "credit_card"
	DebtTypeConstructionLoan = "construction_loan"
	DebtTypeOther            = "other"
)

type Debt struct {
	ID              uint                `gorm:"primaryKey"`
	Name            string              `gorm:"size:300;not null;uniqueIndex"`
	Lender          string              `gorm:"size:300"`
	DebtType        string              `gorm:"size:30;not null"`
	CurrentBalance  decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	OriginalBalance decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	IsActive        bool                `gorm:"not null"`
	Notes           string              `gorm:"type:text"`
	SettlementOffer decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	PayoffOrder     string              `gorm:"size:50"`
	Strategy        string              `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Debt) TableName() string { return "debts" }

type Property struct {
	ID            uint                `gorm:"primaryKey"`
	Address       string              `gorm:"size:300;not null;uniqueIndex"`
	State         string              `gorm:"size:2"`
	PurchasePrice decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	CurrentValue  decimal.Decimal     `gorm:"type:numeric(14,2);not null"`
	ARV           decimal.Decimal     `gorm:"column:arv;type:numeric(14,2);not null"`
	Equity        decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	LTV           decimal.NullDecimal `gorm:"column:ltv;type:numeric(8,4)"`
	ExitStrategy  string              `gorm:"size:300"`
	Notes         string              `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Property) TableName() string { return "properties" }

type PayrollEntry struct {
	ID            uint            `gorm:"primaryKey"`
	EmployeeID    uint            `gorm:"not null;uniqueIndex:idx_payroll_entries_key,priority:1"`
	PeriodStart   time.Time       `gorm:"column:pay_period_start;type:date;not null;uniqueIndex:idx_payroll_entries_key,priority:2"`
	PeriodEnd     time.Time       `gorm:"column:pay_period_end;type:date;not null;uniqueIndex:idx_payroll_entries_key,priority:3"`
	GrossPay      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	NetPay        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	EmployerTaxes decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TotalCost     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Notes         string          `gorm:"type:text"`
	CreatedAt     time.Time
}

func (PayrollEntry) TableName() string { return "payroll_entries" }

type PayrollCalendar struct {
	ID          uint      `gorm:"primaryKey"`
	PayDate     time.Time `gorm:"type:date;not null;uniqueIndex"`
	PeriodStart time.Time `gorm:"type:date;not null"`
	PeriodEnd   time.Time `gorm:"type:date;not null"`
	Status      string    `gorm:"size:20;not null"`
	Notes       string    `gorm:"type:text"`
	CreatedAt   time.Time
}

func (PayrollCalendar) TableName() string { return "payroll_calendar" }

type CashSnapshot struct {
	ID           uint            `gorm:"primaryKey"`
	SnapshotDate time.Time       `gorm:"type:date;not null;uniqueIndex:idx_cash_snapshots_key,priority:1"`
	AccountName  string          `gorm:"size:300;not null;uniqueIndex:idx_cash_snapshots_key,priority:2"`
	Balance      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Notes        string          `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (CashSnapshot) TableName() string { return "cash_snapshots" }

type CashForecastLine struct {
	ID           uint            `gorm:"primaryKey"`
	WeekStarting time.Time       `gorm:"type:date;not null;uniqueIndex:idx_cash_forecast_key,priority:1"`
	Category     string          `gorm:"size:300;not null;uniqueIndex:idx_cash_forecast_key,priority:2"`
	AmountIn     decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	AmountOut    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Net          decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (CashForecastLine) TableName() string { return "cash_forecast_lines" }

const (
	FrequencyWeekly    = "weekly"
	FrequencyBiweekly  = "biweekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyAnnually  = "annually"
)

type RecurringExpense struct {
	ID          uint            `gorm:"primaryKey"`
	VendorID    *uint
	Description string          `gorm:"size:300;not null;uniqueIndex"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Frequency   string          `gorm:"size:20"`
	IsActive    bool            `gorm:"not null"`
	Notes       string          `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (RecurringExpense) TableName() string { return "recurring_expenses" }

const (
	DivisionCompanyWide = "company_wide"
	DivisionMultifamily = "multifamily"
)

type PLEntry struct {
	ID          uint            `gorm:"primaryKey"`
	PeriodYear  int             `gorm:"not null;uniqueIndex:idx_pl_entries_key,priority:1"`
	PeriodMonth int             `gorm:"not null;uniqueIndex:idx_pl_entries_key,priority:2"`
	Division    string          `gorm:"size:30;not null;uniqueIndex:idx_pl_entries_key,priority:3"`
	AccountName string          `gorm:"size:300;not null;uniqueIndex:idx_pl_entries_key,priority:4"`
	IsBudget    bool            `gorm:"not null;uniqueIndex:idx_pl_entries_key,priority:5"`
	Category    string          `gorm:"size:30"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PLEntry) TableName() string { return "pl_entries" }

type Scenario struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"size:300;not null;uniqueIndex"`
	IsBaseline bool   `gorm:"not null"`
	CreatedAt  time.Time
}

func (Scenario) TableName() string { return "scenarios" }

type ScenarioAssumption struct {
	ID            uint   `gorm:"primaryKey"`
	ScenarioID    uint   `gorm:"not null;uniqueIndex:idx_scenario_assumptions_key,priority:1"`
	VariableName  string `gorm:"size:300;not null;uniqueIndex:idx_scenario_assumptions_key,priority:2"`
	VariableValue string `gorm:"size:300"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ScenarioAssumption) TableName() string { return "scenario_assumptions" }

type ChartOfAccount struct {
	ID            uint   `gorm:"primaryKey"`
	AccountNumber string `gorm:"size:20;not null;uniqueIndex"`
	Name          string `gorm:"size:300;not null"`
	AccountType   string `gorm:"size:300"`
	Notes         string `gorm:"type:text"`
	CreatedAt     time.Time
}

func (ChartOfAccount) TableName() string { return "chart_of_accounts" }

const (
	RetainageReceivable = "receivable"
	RetainagePayable    = "payable"
)

type RetainageEntry struct {
	ID         uint            `gorm:"primaryKey"`
	Kind       string          `gorm:"size:20;not null;index:idx_retainage_key,priority:1"`
	Party      string          `gorm:"size:300;not null;index:idx_retainage_key,priority:2"`
	ProjectID  *uint           `gorm:"index:idx_retainage_key,priority:3"`
	VendorID   *uint
	AmountHeld decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Balance    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Notes      string          `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (RetainageEntry) TableName() string { return "retainage_entries" }

type LienWaiver struct {
	ID           uint            `gorm:"primaryKey"`
	VendorID     uint            `gorm:"not null;index:idx_lien_waivers_key,priority:1"`
	ProjectID    *uint           `gorm:"index:idx_lien_waivers_key,priority:2"`
	DrawRef      string          `gorm:"size:50;index:idx_lien_waivers_key,priority:3"`
	WaiverType   string          `gorm:"size:20"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	ThroughDate  *time.Time      `gorm:"type:date"`
	ReceivedDate *time.Time      `gorm:"type:date"`
	Notes        string          `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (LienWaiver) TableName() string { return "lien_waivers" }
