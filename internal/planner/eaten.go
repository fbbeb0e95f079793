package planner

import (
	"encoding/json"

	"pantry-planner/internal/shared"
)

// DayEaten records which meals of a day were eaten. Only true flags are kept.
type DayEaten map[MealType]bool

// EatenLog maps an ISO date to the meals eaten that day. Days without any
// eaten meal are absent. It is stored as a list of [date, DayEaten] pairs.
type EatenLog map[string]DayEaten

func (l EatenLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(shared.MapToPairs(map[string]DayEaten(l)))
}

func (l *EatenLog) UnmarshalJSON(data []byte) error {
	var pairs []shared.Pair[string, DayEaten]
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	log := EatenLog(shared.PairsToMap(pairs))
	// Older records may carry explicit false flags.
	for date, day := range log {
		for meal, eaten := range day {
			if !eaten {
				delete(day, meal)
			}
		}
		if len(day) == 0 {
			delete(log, date)
		}
	}
	*l = log
	return nil
}

// Set records whether meal on date was eaten and reports whether the log changed.
// Clearing the last meal of a day removes the day.
func (l *EatenLog) Set(date string, meal MealType, eaten bool) bool {
	if *l == nil {
		*l = make(EatenLog)
	}
	day := (*l)[date]

	if eaten {
		if day[meal] {
			return false
		}
		if day == nil {
			day = make(DayEaten)
			(*l)[date] = day
		}
		day[meal] = true
		return true
	}

	if !day[meal] {
		return false
	}
	delete(day, meal)
	if len(day) == 0 {
		delete(*l, date)
	}
	return true
}

// IsEaten reports whether meal on date was eaten.
func (l EatenLog) IsEaten(date string, meal MealType) bool {
	return l[date][meal]
}

// Clone returns a deep copy of the log.
func (l EatenLog) Clone() EatenLog {
	c := make(EatenLog, len(l))
	for date, day := range l {
		d := make(DayEaten, len(day))
		for m, v := range day {
			d[m] = v
		}
		c[date] = d
	}
	return c
}
