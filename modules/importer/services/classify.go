package services

import (
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/coerce"
)

var debtTypes = coerce.NewClassifier(models.DebtTypeOther,
	coerce.Rule{Category: models.DebtTypeCreditCard, Keywords: []string{"credit card"}},
	coerce.Rule{Category: models.DebtTypeConstructionLoan, Keywords: []string{"construction", "loan"}},
)

var costCodeCategories = coerce.NewClassifier("General",
	coerce.Rule{Category: "Pre-Construction", Keywords: []string{"architect", "permit", "survey", "impact"}},
	coerce.Rule{Category: "Site Work", Keywords: []string{"clearing", "grading", "excavat", "demolit", "dumpster"}},
	coerce.Rule{Category: "Structure", Keywords: []string{
		"foundation", "lumber", "framing", "roof", "window", "siding", "gutter", "fascia", "soffit", "door",
	}},
	coerce.Rule{Category: "MEP", Keywords: []string{
		"plumbing", "hvac", "electric", "insulation", "water heater", "septic", "sewer", "utility",
	}},
	coerce.Rule{Category: "Drywall", Keywords: []string{"sheetrock", "drywall", "tape"}},
	coerce.Rule{Category: "Fixtures & Finishes", Keywords: []string{
		"cabinet", "vanit", "countertop", "appliance", "toilet", "sink", "bathtub", "shower",
	}},
	coerce.Rule{Category: "Flooring", Keywords: []string{"flooring", "tile", "lvp", "wood floor"}},
	coerce.Rule{Category: "Interior Finishes", Keywords: []string{
		"paint", "millwork", "moulding", "trim", "stair", "railing", "door",
	}},
	coerce.Rule{Category: "Exterior & Site", Keywords: []string{
		"sidewalk", "driveway", "landscap", "fence", "porch", "deck", "pool", "front finish", "concrete",
	}},
	coerce.Rule{Category: "Specialty", Keywords: []string{"fireplace", "fire place"}},
)

// biweekly must precede weekly.
var recurringFrequencies = coerce.NewClassifier("",
	coerce.Rule{Category: models.FrequencyBiweekly, Keywords: []string{"biweekly", "bi-weekly"}},
	coerce.Rule{Category: models.FrequencyWeekly, Keywords: []string{"weekly"}},
	coerce.Rule{Category: models.FrequencyMonthly, Keywords: []string{"month"}},
	coerce.Rule{Category: models.FrequencyQuarterly, Keywords: []string{"quarter"}},
	coerce.Rule{Category: models.FrequencyAnnually, Keywords: []string{"annual"}},
)

var plCategories = coerce.NewClassifier("expense",
	coerce.Rule{Category: "revenue", Keywords: []string{"revenue", "sales", "income", "draw"}},
	coerce.Rule{Category: "cost_of_goods", Keywords: []string{"cogs", "cost of", "material", "subcontract", "labor"}},
)

var changeOrderStatuses = coerce.NewClassifier(models.ChangeOrderDraft,
	coerce.Rule{Category: models.ChangeOrderApproved, Keywords: []string{"approved"}},
	coerce.Rule{Category: models.ChangeOrderPending, Keywords: []string{"pending"}},
	coerce.Rule{Category: models.ChangeOrderRejected, Keywords: []string{"rejected"}},
)

var bidStatuses = coerce.NewClassifier(models.BidIdentified,
	coerce.Rule{Category: models.BidWon, Keywords: []string{"won"}},
	coerce.Rule{Category: models.BidLost, Keywords: []string{"lost"}},
	coerce.Rule{Category: models.BidSubmitted, Keywords: []string{"submitted"}},
	coerce.Rule{Category: models.BidPursuing, Keywords: []string{"pursuing"}},
)

var costEventSources = coerce.NewClassifier(models.CostEventSourceMasterfile,
	coerce.Rule{Category: models.CostEventSourceRamp, Keywords: []string{"ramp"}},
	coerce.Rule{Category: models.CostEventSourceQBO, Keywords: []string{"qbo"}},
	coerce.Rule{Category: models.CostEventSourceLowes, Keywords: []string{"lowes"}},
	coerce.Rule{Category: models.CostEventSourceHomeDepot, Keywords: []string{"home depot"}},
	coerce.Rule{Category: models.CostEventSourceBuildertrend, Keywords: []string{"buildertrend"}},
)

// Used only when the COA sheet leaves the type column blank.
var accountTypes = coerce.NewClassifier("Expense",
	coerce.Rule{Category: "Income", Keywords: []string{"income", "revenue", "sales"}},
	coerce.Rule{Category: "Cost of Goods Sold", Keywords: []string{"cost of", "cogs", "materials", "subcontract"}},
	coerce.Rule{Category: "Bank", Keywords: []string{"bank", "checking", "savings"}},
	coerce.Rule{Category: "Accounts Receivable", Keywords: []string{"receivable"}},
	coerce.Rule{Category: "Accounts Payable", Keywords: []string{"payable"}},
	coerce.Rule{Category: "Credit Card", Keywords: []string{"credit card", "amex", "visa"}},
	coerce.Rule{Category: "Long Term Liability", Keywords: []string{"loan", "note payable", "mortgage"}},
	coerce.Rule{Category: "Equity", Keywords: []string{"equity", "owner", "capital", "retained"}},
)
