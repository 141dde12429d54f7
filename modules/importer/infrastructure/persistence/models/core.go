package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ProjectStatusActive = "active"

	ProjectTypeCustomHome = "custom_home"
	ProjectTypeSpecHome   = "spec_home"
	ProjectTypeRemodel    = "remodel"
)

type Project struct {
	ID             uint            `gorm:"primaryKey"`
	Code           string          `gorm:"size:20;not null;uniqueIndex"`
	Name           string          `gorm:"size:300;not null"`
	Status         string          `gorm:"size:20;not null"`
	ProjectType    string          `gorm:"size:30"`
	Address        string          `gorm:"size:300"`
	City           string          `gorm:"size:100"`
	State          string          `gorm:"size:2"`
	ZipCode        string          `gorm:"size:10"`
	BudgetTotal    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	ContractAmount decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	ProjectManager string          `gorm:"size:300"`
	Notes          string          `gorm:"type:text"`

	// Set when the code was derived heuristically rather than from a known mapping.
	Unconfirmed bool `gorm:"not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Project) TableName() string { return "projects" }

type Vendor struct {
	ID                 uint                `gorm:"primaryKey"`
	Name               string              `gorm:"size:300;not null;uniqueIndex"`
	Trade              string              `gorm:"size:300"`
	Phone              string              `gorm:"size:50"`
	Email              string              `gorm:"size:300"`
	InsuranceExpiry    *time.Time          `gorm:"type:date"`
	ScoreQuality       *int
	ScoreTimeliness    *int
	ScoreCommunication *int
	ScorePrice         *int
	APBalance          decimal.NullDecimal `gorm:"column:ap_balance;type:numeric(14,2)"`
	APBucket           string              `gorm:"column:ap_bucket;size:50"`
	APPriority         string              `gorm:"column:ap_priority;size:50"`
	APRisk             string              `gorm:"column:ap_risk;size:50"`
	Notes              string              `gorm:"type:text"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Vendor) TableName() string { return "vendors" }

type CostCode struct {
	ID              uint            `gorm:"primaryKey"`
	ProjectID       uint            `gorm:"not null;uniqueIndex:idx_cost_codes_key,priority:1"`
	Code            string          `gorm:"size:20;not null;uniqueIndex:idx_cost_codes_key,priority:2"`
	Description     string          `gorm:"size:300"`
	Category        string          `gorm:"size:300"`
	BudgetAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	ActualAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CommittedAmount decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Variance        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	SortOrder       int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (CostCode) TableName() string { return "cost_codes" }

type SOVLine struct {
	ID              uint            `gorm:"primaryKey"`
	ProjectID       uint            `gorm:"not null;uniqueIndex:idx_sov_lines_key,priority:1"`
	LineNumber      int             `gorm:"not null;uniqueIndex:idx_sov_lines_key,priority:2"`
	CostCodeID      *uint
	Description     string          `gorm:"size:300"`
	ScheduledValue  decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PreviousBilled  decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CurrentBilled   decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	StoredMaterials decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TotalCompleted  decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PercentComplete decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	BalanceToFinish decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (SOVLine) TableName() string { return "sov_lines" }

const (
	PayAppStatusDraft = "draft"
	PayAppStatusPaid  = "paid"
)

type PayApp struct {
	ID              uint            `gorm:"primaryKey"`
	ProjectID       uint            `gorm:"not null;uniqueIndex:idx_pay_apps_key,priority:1"`
	Number          int             `gorm:"column:pay_app_number;not null;uniqueIndex:idx_pay_apps_key,priority:2"`
	AmountRequested decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	AmountApproved  decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	NetPayment      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Status          string          `gorm:"size:20;not null"`
	Notes           string          `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PayApp) TableName() string { return "pay_apps" }

const (
	CostEventSourceMasterfile   = "masterfile_import"
	CostEventSourceRamp         = "ramp_import"
	CostEventSourceQBO          = "qbo_sync"
	CostEventSourceLowes        = "lowes_import"
	CostEventSourceHomeDepot    = "homedepot_import"
	CostEventSourceBuildertrend = "buildertrend_import"

	CostEventTypeMaterialPurchase = "material_purchase"
)

type CostEvent struct {
	ID              uint            `gorm:"primaryKey"`
	ProjectID       *uint           `gorm:"index"`
	VendorID        *uint           `gorm:"index"`
	Date            *time.Time      `gorm:"type:date"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	EventType       string          `gorm:"size:30"`
	Description     string          `gorm:"size:500"`
	ReferenceNumber string          `gorm:"size:300"`
	PONumber        string          `gorm:"column:po_number;size:300"`
	Source          string          `gorm:"size:30;not null"`
	SourceRef       string          `gorm:"size:300"`
	ImportBatch     string          `gorm:"size:100;index"`
	Notes           string          `gorm:"type:text"`

	// Content hash of the source row, used to recognize re-imported ledger lines.
	Fingerprint string `gorm:"size:64;index"`

	CreatedAt time.Time
}

func (CostEvent) TableName() string { return "cost_events" }

const (
	ChangeOrderDraft    = "draft"
	ChangeOrderPending  = "pending_approval"
	ChangeOrderApproved = "approved"
	ChangeOrderRejected = "rejected"
)

type ChangeOrder struct {
	ID            uint            `gorm:"primaryKey"`
	ProjectID     uint            `gorm:"not null;uniqueIndex:idx_change_orders_key,priority:1"`
	CONumber      string          `gorm:"column:co_number;size:20;not null;uniqueIndex:idx_change_orders_key,priority:2"`
	Title         string          `gorm:"size:300"`
	Description   string          `gorm:"type:text"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Status        string          `gorm:"size:20;not null"`
	RequestedBy   string          `gorm:"size:300"`
	DateSubmitted *time.Time      `gorm:"type:date"`
	DateApproved  *time.Time      `gorm:"type:date"`
	Notes         string          `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ChangeOrder) TableName() string { return "change_orders" }

const (
	InvoiceSent    = "sent"
	InvoiceOverdue = "overdue"
)

type Invoice struct {
	ID            uint            `gorm:"primaryKey"`
	ProjectID     *uint
	InvoiceNumber string          `gorm:"size:300;not null;uniqueIndex:idx_invoices_key,priority:1"`
	ClientName    string          `gorm:"size:300;not null;uniqueIndex:idx_invoices_key,priority:2"`
	DateIssued    *time.Time      `gorm:"type:date"`
	DateDue       *time.Time      `gorm:"type:date"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Balance       decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Status        string          `gorm:"size:20;not null"`
	Notes         string          `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Invoice) TableName() string { return "invoices" }

type Quote struct {
	ID               uint            `gorm:"primaryKey"`
	ProjectID        uint            `gorm:"not null;uniqueIndex:idx_quotes_key,priority:2"`
	VendorID         *uint
	QuoteNumber      string          `gorm:"size:50;not null;uniqueIndex:idx_quotes_key,priority:1"`
	ScopeCategory    string          `gorm:"size:300"`
	ScopeDescription string          `gorm:"type:text"`
	LaborMaterial    string          `gorm:"size:300"`
	Amount           decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	QuoteDate        *time.Time      `gorm:"type:date"`
	IsApproved       bool            `gorm:"not null"`
	ContractIssued   bool            `gorm:"not null"`
	Priority         int
	Notes            string          `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Quote) TableName() string { return "quotes" }

type Employee struct {
	ID         uint                `gorm:"primaryKey"`
	FirstName  string              `gorm:"size:100;not null;uniqueIndex:idx_employees_name,priority:1"`
	LastName   string              `gorm:"size:200;not null;uniqueIndex:idx_employees_name,priority:2"`
	Role       string              `gorm:"size:300"`
	Salary     decimal.NullDecimal `gorm:"type:numeric(14,2)"`
	HourlyRate decimal.NullDecimal `gorm:"type:numeric(10,2)"`
	IsActive   bool                `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Employee) TableName() string { return "employees" }

const (
	MilestoneNotStarted = "not_started"
	MilestoneInProgress = "in_progress"
	MilestoneCompleted  = "completed"
	MilestoneDelayed    = "delayed"
)

type ProjectMilestone struct {
	ID           uint       `gorm:"primaryKey"`
	ProjectID    uint       `gorm:"not null;index:idx_milestones_key,priority:1"`
	TaskName     string     `gorm:"size:300;not null;index:idx_milestones_key,priority:2"`
	PlannedStart *time.Time `gorm:"type:date;index:idx_milestones_key,priority:3"`
	PlannedEnd   *time.Time `gorm:"type:date"`
	ActualStart  *time.Time `gorm:"type:date"`
	ActualEnd    *time.Time `gorm:"type:date"`
	Status       string     `gorm:"size:20;not null"`
	AssignedTo   string     `gorm:"size:300"`
	SortOrder    int
	Notes        string     `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ProjectMilestone) TableName() string { return "project_milestones" }
