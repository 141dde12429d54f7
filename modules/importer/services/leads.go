package services

import (
	"context"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/coerce"
	"github.com/iota-uz/workbook-import/pkg/composables"
)

const (
	leadsSheet     = "Leads"
	proposalsSheet = "Lead Proposals"

	// Row 0 is a banner, row 1 the header.
	crmHeaderRow = 1
	crmFirstRow  = 2
	notesLen     = 2000
)

// LeadsImporter loads the CRM leads export. Leads are never updated: a row
// whose (title, contact) pair already exists is skipped.
type LeadsImporter struct {
	importerBase
	path string
}

func NewLeadsImporter(path string, deps Deps) *LeadsImporter {
	return &LeadsImporter{
		importerBase: newImporterBase(domain.SourceLeads, buildertrendSourceType, deps),
		path:         path,
	}
}

func (l *LeadsImporter) Run(ctx context.Context) (*Result, error) {
	return l.run(ctx, func(ctx context.Context, res *Result) error {
		rows, err := readSheet(l.path, leadsSheet)
		if err != nil {
			return err
		}
		if len(rows) <= crmFirstRow {
			res.AddError("Leads file has fewer than 3 rows")
			return nil
		}
		cols := newHeaderIndex(rows[crmHeaderRow])
		return composables.InTx(ctx, func(ctx context.Context) error {
			for _, row := range rows[crmFirstRow:] {
				err := inRow(ctx, res, func(ctx context.Context) error {
					return l.lead(ctx, row, cols, res)
				})
				if err != nil {
					res.AddError("Row '%s': %v", coerce.Trimmed(cols.cell(row, "Opportunity Title", 2)), err)
				}
			}
			return nil
		})
	})
}

func (l *LeadsImporter) lead(ctx context.Context, row coerce.Row, cols headerIndex, res *Result) error {
	title := cols.text(row, "Opportunity Title", 2)
	if title == "" {
		res.Skipped++
		return nil
	}
	contact := cols.text(row, "Client Contact", 4)
	existing, err := findOne[models.Lead](ctx, map[string]any{"opportunity_title": title, "client_contact": contact})
	if err != nil {
		return err
	}
	if existing != nil {
		res.Skipped++
		return nil
	}
	if err := insert(ctx, &models.Lead{
		OpportunityTitle:    title,
		ClientContact:       contact,
		Email:               cols.text(row, "Email", 1),
		Phone:               cols.text(row, "Phone", 33),
		CellPhone:           cols.text(row, "Cell Phone", 16),
		StreetAddress:       cols.text(row, "Street Address (Contact)", 19),
		City:                cols.text(row, "City (Contact)", 17),
		State:               cols.text(row, "State (Contact)", 18),
		ZipCode:             cols.text(row, "Zip (Contact)", 20),
		OppStreetAddress:    cols.text(row, "Street Address(Opp)", 31),
		OppCity:             cols.text(row, "City(Opp)", 29),
		OppState:            cols.text(row, "State(Opp)", 30),
		OppZip:              cols.text(row, "Zip(Opp)", 32),
		LeadStatus:          cols.text(row, "Lead Status", 5),
		Confidence:          coerce.Int(cols.cell(row, "Confidence", 7)),
		EstimatedRevenueMin: coerce.Currency(cols.cell(row, "Estimated Revenue Min", 8)),
		EstimatedRevenueMax: coerce.Currency(cols.cell(row, "Estimated Revenue Max", 9)),
		EstimatedRevenue:    coerce.Currency(cols.cell(row, "Estimated Revenue", 22)),
		Salesperson:         cols.text(row, "Salesperson", 11),
		Source:              cols.text(row, "Source", 12),
		ProjectType:         cols.text(row, "Project Type", 14),
		ProposalStatus:      cols.text(row, "Proposal Status...", 13),
		LastContacted:       cols.text(row, "Last Contacted", 10),
		HasBeenContacted:    coerce.Bool(cols.cell(row, "Has Opportunity Been Contacted?", 0)),
		CreatedDate:         coerce.Date(cols.cell(row, "Created Date", 3)),
		SoldDate:            coerce.Date(cols.cell(row, "Sold Date", 37)),
		ProjectedSalesDate:  coerce.Date(cols.cell(row, "Projected Sales Date", 34)),
		RelatedJob:          cols.text(row, "Related Job", 36),
		Notes:               coerce.Text(cols.cell(row, "Notes", 28), notesLen),
	}); err != nil {
		return err
	}
	res.Created++
	return nil
}

// ProposalsImporter loads the CRM proposals export and links each proposal
// to the lead with the same opportunity title when one exists.
type ProposalsImporter struct {
	importerBase
	path string
}

func NewProposalsImporter(path string, deps Deps) *ProposalsImporter {
	return &ProposalsImporter{
		importerBase: newImporterBase(domain.SourceProposals, buildertrendSourceType, deps),
		path:         path,
	}
}

func (p *ProposalsImporter) Run(ctx context.Context) (*Result, error) {
	return p.run(ctx, func(ctx context.Context, res *Result) error {
		rows, err := readSheet(p.path, proposalsSheet)
		if err != nil {
			return err
		}
		if len(rows) <= crmFirstRow {
			res.AddError("Proposals file has fewer than 3 rows")
			return nil
		}
		cols := newHeaderIndex(rows[crmHeaderRow])
		return composables.InTx(ctx, func(ctx context.Context) error {
			for _, row := range rows[crmFirstRow:] {
				err := inRow(ctx, res, func(ctx context.Context) error {
					return p.proposal(ctx, row, cols, res)
				})
				if err != nil {
					res.AddError("Row '%s': %v", coerce.Trimmed(coerce.Cell(row, 0)), err)
				}
			}
			return nil
		})
	})
}

func (p *ProposalsImporter) proposal(ctx context.Context, row coerce.Row, cols headerIndex, res *Result) error {
	title := cols.text(row, "Proposal Title", 0)
	if title == "" {
		res.Skipped++
		return nil
	}
	existing, err := findOne[models.LeadProposal](ctx, map[string]any{"proposal_title": title})
	if err != nil {
		return err
	}
	if existing != nil {
		res.Skipped++
		return nil
	}

	opportunity := cols.text(row, "Opportunity Title", 1)
	var leadID *uint
	if opportunity != "" {
		lead, err := findOne[models.Lead](ctx, map[string]any{"opportunity_title": opportunity})
		if err != nil {
			return err
		}
		if lead != nil {
			leadID = &lead.ID
		}
	}

	if err := insert(ctx, &models.LeadProposal{
		LeadID:           leadID,
		ProposalTitle:    title,
		OpportunityTitle: opportunity,
		ClientContact:    cols.text(row, "Client Contact", 2),
		Salesperson:      cols.text(row, "Salesperson...", 3),
		ClientPrice:      coerce.Currency(cols.cell(row, "Client Price", 4)),
		Status:           cols.text(row, "Proposal Status", 5),
	}); err != nil {
		return err
	}
	res.Created++
	return nil
}
