package keys

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"lecturepdf/internal/domain"
)

var defaultSchedule = []domain.ScheduleSlot{
	{StartHour: 9, EndHour: 10, Label: "Math"},
	{StartHour: 10, EndHour: 11, Label: "Science"},
	{StartHour: 11, EndHour: 12, Label: "English"},
	{StartHour: 12, EndHour: 13, Label: "History"},
	{StartHour: 14, EndHour: 15, Label: "Geography"},
	{StartHour: 15, EndHour: 16, Label: "Computer Science"},
}

// DefaultSchedule returns a copy of the built-in timetable.
func DefaultSchedule() []domain.ScheduleSlot {
	out := make([]domain.ScheduleSlot, len(defaultSchedule))
	copy(out, defaultSchedule)
	return out
}

type scheduleFile struct {
	Slots []domain.ScheduleSlot `yaml:"slots"`
}

// LoadSchedule reads a timetable from a YAML file of the form
//
//	slots:
//	  - start: 9
//	    end: 10
//	    label: Math
//
// An empty path yields the default schedule.
func LoadSchedule(path string) ([]domain.ScheduleSlot, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSchedule(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule file: %w", err)
	}

	var file scheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse schedule file: %w", err)
	}

	if len(file.Slots) == 0 {
		return nil, errors.New("schedule file has no slots")
	}

	for i, slot := range file.Slots {
		if err := validateSlot(slot); err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
	}

	return file.Slots, nil
}

// Labels lists the schedule labels in order, without duplicates.
func Labels(schedule []domain.ScheduleSlot) []string {
	seen := make(map[string]struct{}, len(schedule))
	labels := make([]string, 0, len(schedule))
	for _, slot := range schedule {
		if _, ok := seen[slot.Label]; ok {
			continue
		}
		seen[slot.Label] = struct{}{}
		labels = append(labels, slot.Label)
	}
	return labels
}

func validateSlot(slot domain.ScheduleSlot) error {
	if strings.TrimSpace(slot.Label) == "" {
		return errors.New("label is required")
	}
	if slot.StartHour < 0 || slot.EndHour > 24 || slot.StartHour >= slot.EndHour {
		return fmt.Errorf("invalid hour range [%d,%d)", slot.StartHour, slot.EndHour)
	}
	return nil
}
