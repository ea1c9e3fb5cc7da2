package wizard

import "fmt"

// Step is a screen of the wizard. Steps are visited strictly in order.
type Step int

const (
	StepDesiredPayment Step = iota
	StepCollateral
	StepAmount
	StepTerm
	StepOffers
	StepReview
)

const (
	FirstStep = StepDesiredPayment
	LastStep  = StepReview
)

// StepConfig describes how a step is presented.
type StepConfig struct {
	Step     Step   `json:"step"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

var stepTable = [...]StepConfig{
	StepDesiredPayment: {
		Step:     StepDesiredPayment,
		Name:     "desiredPayment",
		Title:    "Сколько вы готовы платить в месяц?",
		Subtitle: "Укажите максимальную сумму, которую готовы вносить за кредит",
	},
	StepCollateral: {
		Step:     StepCollateral,
		Name:     "collateral",
		Title:    "Есть ли у вас собственность?",
		Subtitle: "Важно чтобы это было в вашей собственности",
	},
	StepAmount: {
		Step:     StepAmount,
		Name:     "amount",
		Title:    "На какую сумму вы хотите взять кредит?",
		Subtitle: "Главное уложиться в доступный диапазон",
	},
	StepTerm: {
		Step:  StepTerm,
		Name:  "term",
		Title: "На какой срок?",
	},
	StepOffers: {
		Step:     StepOffers,
		Name:     "offers",
		Title:    "На своих условиях",
		Subtitle: "Кредит наличными",
	},
	StepReview: {
		Step:     StepReview,
		Name:     "review",
		Title:    "На своих условиях",
		Subtitle: "Кредит наличными",
	},
}

// Valid reports whether s is within [FirstStep, LastStep].
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Config returns the presentation of s.
func (s Step) Config() StepConfig {
	if !s.Valid() {
		return StepConfig{Step: s, Name: s.String()}
	}
	return stepTable[s]
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepTable[s].Name
}
