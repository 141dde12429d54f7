package services

import (
	"context"

	"github.com/iota-uz/workbook-import/pkg/coerce"
)

type sectionState int

const (
	// No sentinel seen yet; data rows are ignored.
	stateScanning sectionState = iota
	stateInSection
)

// sectionMachine tracks which section a row belongs to in sheets that stack
// several projects (or scenarios, or ledgers) in one flat row list. It lives
// on the stack of a single Parse call.
type sectionMachine[K any] struct {
	state   sectionState
	key     K
	ordinal int
}

func (m *sectionMachine[K]) enter(key K) {
	m.state = stateInSection
	m.key = key
	m.ordinal = 0
}

// advance returns the current section key and the 1-based position of the
// row within it. ok is false while still scanning.
func (m *sectionMachine[K]) advance() (key K, ordinal int, ok bool) {
	if m.state != stateInSection {
		return key, 0, false
	}
	m.ordinal++
	return m.key, m.ordinal, true
}

// sectionRules configure walkSections for one sheet.
type sectionRules[K any] struct {
	// Column holding the row label that sentinels and skips are matched on.
	labelCol int
	// sentinel returns the new section key when label starts a section.
	sentinel func(ctx context.Context, label string) (K, bool, error)
	// ignore marks sheet specific header rows such as repeated column titles.
	ignore func(label string) bool
}

// sectionRow is one data row handed to the visitor.
type sectionRow[K any] struct {
	key     K
	ordinal int
	label   string
	row     coerce.Row
}

// walkSections runs the section state machine over rows. Blank labels,
// totals, formulas and separator rows are skipped in every state and never
// change it.
func walkSections[K any](ctx context.Context, rows []coerce.Row, rules sectionRules[K], visit func(ctx context.Context, r sectionRow[K]) error) error {
	var m sectionMachine[K]
	for _, row := range rows {
		label := coerce.Text(coerce.Cell(row, rules.labelCol), coerce.DefaultTextLen)
		if label == "" {
			continue
		}
		if isStructuralLabel(label) || (rules.ignore != nil && rules.ignore(label)) {
			continue
		}
		key, isSentinel, err := rules.sentinel(ctx, label)
		if err != nil {
			return err
		}
		if isSentinel {
			m.enter(key)
			continue
		}
		key, ordinal, ok := m.advance()
		if !ok {
			continue
		}
		if err := visit(ctx, sectionRow[K]{key: key, ordinal: ordinal, label: label, row: row}); err != nil {
			return err
		}
	}
	return nil
}
