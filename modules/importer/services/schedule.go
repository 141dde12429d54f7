package services

import (
	"context"
	"time"

	"github.com/iota-uz/workbook-import/modules/importer/domain"
	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/composables"
)

// An end day that does not exist in its month is replaced by start plus this.
const scheduleFallbackDays = 3

// ScheduleImporter loads the embedded construction schedule as project
// milestones. It reads no input; the year comes from the import options.
type ScheduleImporter struct {
	importerBase
	resolver *Resolver
	tasks    []scheduleTask
}

func NewScheduleImporter(deps Deps) *ScheduleImporter {
	base := newImporterBase(domain.SourceSchedule, buildertrendSourceType, deps)
	return &ScheduleImporter{
		importerBase: base,
		resolver:     NewResolver(base.logger),
		tasks:        scheduleTasks(),
	}
}

func (s *ScheduleImporter) Run(ctx context.Context) (*Result, error) {
	return s.run(ctx, func(ctx context.Context, res *Result) error {
		year := s.deps.Options.ScheduleYear
		y, m, d := s.deps.Now().Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

		return composables.InTx(ctx, func(ctx context.Context) error {
			for _, task := range s.tasks {
				err := inRow(ctx, res, func(ctx context.Context) error {
					return s.milestone(ctx, task, year, today, res)
				})
				if err != nil {
					res.AddError("'%s' (%s): %v", task.Task, task.Code, err)
				}
			}
			return nil
		})
	})
}

func (s *ScheduleImporter) milestone(ctx context.Context, task scheduleTask, year int, today time.Time, res *Result) error {
	projectID, err := s.resolver.Project(ctx, task.Code, task.Code)
	if err != nil {
		return err
	}
	start, end := taskWindow(task, year)

	existing, err := findOne[models.ProjectMilestone](ctx, map[string]any{
		"project_id":    projectID,
		"task_name":     task.Task,
		"planned_start": start,
	})
	if err != nil {
		return err
	}
	if existing != nil {
		res.Skipped++
		return nil
	}
	if err := insert(ctx, &models.ProjectMilestone{
		ProjectID:    projectID,
		TaskName:     task.Task,
		Status:       milestoneStatus(start, end, today),
		PlannedStart: &start,
		PlannedEnd:   &end,
	}); err != nil {
		return err
	}
	res.Created++
	return nil
}

// taskWindow turns the month/day pair of a task into planned dates. An end
// day before the start day belongs to the following month.
func taskWindow(task scheduleTask, year int) (start, end time.Time) {
	month := time.Month(task.Month)
	start, ok := civilDate(year, month, task.Start)
	if !ok {
		start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	}
	endYear, endMonth := year, month
	if task.End < task.Start {
		endMonth++
		if endMonth > time.December {
			endMonth = time.January
			endYear++
		}
	}
	end, ok = civilDate(endYear, endMonth, task.End)
	if !ok {
		end = start.AddDate(0, 0, scheduleFallbackDays)
	}
	return start, end
}

// civilDate rejects days time.Date would normalize into another month.
func civilDate(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func milestoneStatus(start, end, today time.Time) string {
	switch {
	case end.Before(today):
		return models.MilestoneCompleted
	case !start.After(today):
		return models.MilestoneInProgress
	default:
		return models.MilestoneNotStarted
	}
}
