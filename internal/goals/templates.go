package goals

import "moneybuddy/internal/core"

// Template is a preset used to pre-fill the add-goal form.
type Template struct {
	Name   string      `json:"name"`
	Amount core.Amount `json:"amount"`
}

var templates = []Template{
	{Name: "Emergency Fund", Amount: core.AmountFromInt(10000)},
	{Name: "Student Loan Repayment", Amount: core.AmountFromInt(25000)},
	{Name: "Buy a House", Amount: core.AmountFromInt(80000)},
	{Name: "Buy a Car", Amount: core.AmountFromInt(30000)},
	{Name: "FIRE Number", Amount: core.AmountFromInt(1000000)},
	{Name: "Vacation Fund", Amount: core.AmountFromInt(5000)},
}

// Templates returns the presets in display order.
func Templates() []Template {
	return append([]Template(nil), templates...)
}

// QuickFill looks up a preset by exact name. It never touches a tracker.
func QuickFill(name string) (Template, bool) {
	for _, t := range templates {
		if t.Name == name {
			return t, true
		}
	}
	return Template{}, false
}

// Input returns the add-goal form pre-filled from the template.
func (t Template) Input() core.GoalInput {
	return core.GoalInput{Name: t.Name, TargetAmount: t.Amount.String()}
}
