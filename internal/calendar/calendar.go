// Package calendar implements the inline date-picker used by the assignment
// flow. The picker keeps no state between renders: every button carries the
// full navigation context in its callback token, so one Calendar value can be
// shared by all users.
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	tokenPrefix = "cal"
	yearPage    = 4
)

var (
	ErrMalformedToken = errors.New("calendar: malformed token")
	ErrBeforeMin      = errors.New("calendar: date before minimum")
	ErrNoop           = errors.New("calendar: inert cell")
)

// Step is the current zoom level of the picker.
type Step int

const (
	StepYear Step = iota
	StepMonth
	StepDay
)

func (s Step) code() string {
	switch s {
	case StepYear:
		return "y"
	case StepMonth:
		return "m"
	default:
		return "d"
	}
}

func (s Step) String() string {
	switch s {
	case StepYear:
		return "year"
	case StepMonth:
		return "month"
	default:
		return "day"
	}
}

// Label is the prompt shown above the widget at this step.
func (s Step) Label() string {
	switch s {
	case StepYear:
		return "Выберите год"
	case StepMonth:
		return "Выберите месяц"
	default:
		return "Выберите день"
	}
}

func parseStep(code string) (Step, bool) {
	switch code {
	case "y":
		return StepYear, true
	case "m":
		return StepMonth, true
	case "d":
		return StepDay, true
	}
	return 0, false
}

type Button struct {
	Text string
	Data string
}

// Widget is a rendered keyboard, row by row.
type Widget struct {
	Rows [][]Button
}

type DecisionKind int

const (
	Navigate DecisionKind = iota
	Selected
)

// Decision is the outcome of processing one token. For Navigate, Widget and
// Step describe the keyboard to redraw; for Selected, Date is the chosen day.
type Decision struct {
	Kind   DecisionKind
	Widget Widget
	Step   Step
	Date   Date
}

// Calendar renders and decodes pickers that refuse days before Min.
type Calendar struct {
	Min Date
}

func New(floor Date) *Calendar {
	return &Calendar{Min: floor}
}

// IsToken reports whether data was produced by this package.
func IsToken(data string) bool {
	return strings.HasPrefix(data, tokenPrefix+":")
}

// Build renders the year-level picker anchored at ref, or at Min when ref is
// earlier.
func (c *Calendar) Build(ref Date) (Widget, Step) {
	if ref.Before(c.Min) {
		ref = c.Min
	}
	return c.years(ref.Year), StepYear
}

func (c *Calendar) Process(token string) (Decision, error) {
	action, step, d, err := decode(token)
	if err != nil {
		return Decision{}, err
	}
	switch action {
	case "n":
		return Decision{}, ErrNoop
	case "g":
		return c.page(step, d)
	}

	switch step {
	case StepYear:
		if d.Year < c.Min.Year {
			return Decision{}, ErrBeforeMin
		}
		return Decision{Kind: Navigate, Widget: c.months(d.Year), Step: StepMonth}, nil
	case StepMonth:
		if d.monthStart().Before(c.Min.monthStart()) {
			return Decision{}, ErrBeforeMin
		}
		return Decision{Kind: Navigate, Widget: c.days(d.monthStart()), Step: StepDay}, nil
	default:
		if d.Before(c.Min) {
			return Decision{}, ErrBeforeMin
		}
		return Decision{Kind: Selected, Date: d}, nil
	}
}

func (c *Calendar) page(step Step, d Date) (Decision, error) {
	switch step {
	case StepYear:
		if d.Year+yearPage-1 < c.Min.Year {
			return Decision{}, ErrBeforeMin
		}
		return Decision{Kind: Navigate, Widget: c.years(d.Year), Step: StepYear}, nil
	case StepMonth:
		if d.Year < c.Min.Year {
			return Decision{}, ErrBeforeMin
		}
		return Decision{Kind: Navigate, Widget: c.months(d.Year), Step: StepMonth}, nil
	default:
		if d.monthStart().Before(c.Min.monthStart()) {
			return Decision{}, ErrBeforeMin
		}
		return Decision{Kind: Navigate, Widget: c.days(d.monthStart()), Step: StepDay}, nil
	}
}

func encode(action string, step Step, d Date) string {
	return fmt.Sprintf("%s:%s:%s:%04d:%02d:%02d", tokenPrefix, action, step.code(), d.Year, int(d.Month), d.Day)
}

func decode(token string) (string, Step, Date, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 6 || parts[0] != tokenPrefix {
		return "", 0, Date{}, fmt.Errorf("%w: %q", ErrMalformedToken, token)
	}
	action := parts[1]
	if action != "g" && action != "s" && action != "n" {
		return "", 0, Date{}, fmt.Errorf("%w: action %q", ErrMalformedToken, action)
	}
	step, ok := parseStep(parts[2])
	if !ok {
		return "", 0, Date{}, fmt.Errorf("%w: step %q", ErrMalformedToken, parts[2])
	}
	var nums [3]int
	for i, p := range parts[3:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, Date{}, fmt.Errorf("%w: %q", ErrMalformedToken, token)
		}
		nums[i] = n
	}
	d, err := NewDate(nums[0], time.Month(nums[1]), nums[2])
	if err != nil {
		return "", 0, Date{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return action, step, d, nil
}

var (
	monthShort = [...]string{"Янв", "Фев", "Мар", "Апр", "Май", "Июн", "Июл", "Авг", "Сен", "Окт", "Ноя", "Дек"}
	monthFull  = [...]string{"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь", "Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь"}
	weekdays   = [...]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}
)

func blank(step Step, anchor Date) Button {
	return Button{Text: " ", Data: encode("n", step, anchor)}
}

func (c *Calendar) years(from int) Widget {
	var rows [][]Button
	for r := 0; r < yearPage/2; r++ {
		var row []Button
		for i := 0; i < 2; i++ {
			y := Date{Year: from + r*2 + i, Month: time.January, Day: 1}
			if y.Year < c.Min.Year {
				row = append(row, blank(StepYear, y))
				continue
			}
			row = append(row, Button{Text: strconv.Itoa(y.Year), Data: encode("s", StepYear, y)})
		}
		rows = append(rows, row)
	}
	anchor := Date{Year: from, Month: time.January, Day: 1}
	prev := blank(StepYear, anchor)
	if from-1 >= c.Min.Year {
		prev = Button{Text: "«", Data: encode("g", StepYear, Date{Year: from - yearPage, Month: time.January, Day: 1})}
	}
	next := Button{Text: "»", Data: encode("g", StepYear, Date{Year: from + yearPage, Month: time.January, Day: 1})}
	rows = append(rows, []Button{prev, next})
	return Widget{Rows: rows}
}

func (c *Calendar) months(year int) Widget {
	anchor := Date{Year: year, Month: time.January, Day: 1}
	rows := [][]Button{{{Text: strconv.Itoa(year), Data: encode("g", StepYear, anchor)}}}
	minMonth := c.Min.monthStart()
	for r := 0; r < 4; r++ {
		var row []Button
		for i := 0; i < 3; i++ {
			m := Date{Year: year, Month: time.Month(r*3 + i + 1), Day: 1}
			if m.Before(minMonth) {
				row = append(row, blank(StepMonth, m))
				continue
			}
			row = append(row, Button{Text: monthShort[m.Month-1], Data: encode("s", StepMonth, m)})
		}
		rows = append(rows, row)
	}
	prev := blank(StepMonth, anchor)
	if year-1 >= c.Min.Year {
		prev = Button{Text: "«", Data: encode("g", StepMonth, Date{Year: year - 1, Month: time.January, Day: 1})}
	}
	next := Button{Text: "»", Data: encode("g", StepMonth, Date{Year: year + 1, Month: time.January, Day: 1})}
	rows = append(rows, []Button{prev, next})
	return Widget{Rows: rows}
}

func (c *Calendar) days(first Date) Widget {
	title := fmt.Sprintf("%s %d", monthFull[first.Month-1], first.Year)
	rows := [][]Button{{{Text: title, Data: encode("g", StepMonth, Date{Year: first.Year, Month: time.January, Day: 1})}}}

	header := make([]Button, 0, len(weekdays))
	for _, w := range weekdays {
		header = append(header, Button{Text: w, Data: encode("n", StepDay, first)})
	}
	rows = append(rows, header)

	offset := (int(first.Time().Weekday()) + 6) % 7
	last := first.addMonths(1).Time().AddDate(0, 0, -1).Day()
	row := make([]Button, 0, 7)
	for i := 0; i < offset; i++ {
		row = append(row, blank(StepDay, first))
	}
	for day := 1; day <= last; day++ {
		d := Date{Year: first.Year, Month: first.Month, Day: day}
		if d.Before(c.Min) {
			row = append(row, blank(StepDay, d))
		} else {
			row = append(row, Button{Text: strconv.Itoa(day), Data: encode("s", StepDay, d)})
		}
		if len(row) == 7 {
			rows = append(rows, row)
			row = make([]Button, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, blank(StepDay, first))
		}
		rows = append(rows, row)
	}

	prevMonth := first.addMonths(-1)
	prev := blank(StepDay, first)
	if !prevMonth.Before(c.Min.monthStart()) {
		prev = Button{Text: "«", Data: encode("g", StepDay, prevMonth)}
	}
	next := Button{Text: "»", Data: encode("g", StepDay, first.addMonths(1))}
	rows = append(rows, []Button{prev, next})
	return Widget{Rows: rows}
}
