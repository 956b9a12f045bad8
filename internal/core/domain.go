package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the calendar date format used in storage and forms.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID       string          `json:"id"`
		Amount   Amount          `json:"amount"`
		Category string          `json:"category"`
		Type     TransactionType `json:"type"`
		Date     Date            `json:"date"`
	}

	Goal struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		TargetAmount  Amount `json:"targetAmount"`
		CurrentAmount Amount `json:"currentAmount"`
		Deadline      *Date  `json:"deadline,omitempty"`
	}
)

var (
	ErrEmptyAmount     = errors.New("amount is required")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("category is required")
	ErrInvalidType     = errors.New("type must be income or expense")
	ErrEmptyName       = errors.New("goal name is required")
	ErrInvalidTarget   = errors.New("target amount must be a positive number")
	ErrInvalidDeadline = errors.New("deadline must be a YYYY-MM-DD date")
	ErrInvalidDate     = errors.New("invalid date")
)

// ValidationError reports a missing or malformed field on an add operation.
// The store is left untouched whenever one is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidationError reports whether err carries a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var categories = map[TransactionType][]string{
	Income:  {"Salary", "Freelance", "Investment", "Other Income"},
	Expense: {"Food", "Transport", "Shopping", "Bills", "Entertainment", "Healthcare", "Other Expense"},
}

// Categories returns the suggested categories for a transaction type.
// Any non-empty category is accepted; these only feed the add form.
func Categories(t TransactionType) []string {
	return append([]string(nil), categories[t]...)
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseTransactionType accepts income or expense in any case. An empty
// string means expense, matching the add form default.
func ParseTransactionType(s string) (TransactionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Expense, nil
	}
	t := TransactionType(s)
	if !t.IsValid() {
		return "", ErrInvalidType
	}
	return t, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewTransaction validates raw add-form input and builds a transaction
// dated on the given day.
func NewTransaction(id, amount, category, typ string, day Date) (Transaction, error) {
	amt, err := ParseAmount(amount)
	if err != nil {
		return Transaction{}, invalid("amount", err)
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return Transaction{}, invalid("category", ErrEmptyCategory)
	}
	t, err := ParseTransactionType(typ)
	if err != nil {
		return Transaction{}, invalid("type", err)
	}
	return Transaction{
		ID:       id,
		Amount:   amt,
		Category: category,
		Type:     t,
		Date:     day,
	}, nil
}

// GoalInput is the raw add-goal form.
type GoalInput struct {
	Name          string
	TargetAmount  string
	CurrentAmount string
	Deadline      string
}

// NewGoal validates raw input. CurrentAmount falls back to zero when it
// is missing, non-numeric or negative.
func NewGoal(id string, in GoalInput) (Goal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Goal{}, invalid("name", ErrEmptyName)
	}
	target, err := ParseAmount(in.TargetAmount)
	if err != nil || !target.IsPositive() {
		return Goal{}, invalid("targetAmount", ErrInvalidTarget)
	}
	current, err := ParseAmount(in.CurrentAmount)
	if err != nil {
		current = Amount{}
	}
	g := Goal{
		ID:            id,
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: current,
	}
	if v := strings.TrimSpace(in.Deadline); v != "" {
		d, err := ParseDate(v)
		if err != nil {
			return Goal{}, invalid("deadline", ErrInvalidDeadline)
		}
		g.Deadline = &d
	}
	return g, nil
}
