package predict

import (
	"errors"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/FlavioCFOliveira/resafraud/internal/dataset"
	"github.com/FlavioCFOliveira/resafraud/internal/reservation"
)

// Input is one reservation as submitted through the form or the JSON API.
// Boolean fields carry "True" or "False", the spelling of the cleaned table.
type Input struct {
	Places             int     `form:"places" json:"places" validate:"min=1,max=100"`
	Travellers         int     `form:"travellers" json:"travellers" validate:"min=1,max=50"`
	Status             string  `form:"status" json:"status" validate:"required,reservation_status"`
	ReminderSent       string  `form:"reminder_sent" json:"reminder_sent" validate:"oneof=True False"`
	FlightFrequency    int     `form:"flight_frequency" json:"flight_frequency" validate:"min=0"`
	Hour               int     `form:"hour" json:"hour" validate:"min=0,max=23"`
	DayOfWeek          int     `form:"dayofweek" json:"dayofweek" validate:"min=0,max=6"`
	Month              int     `form:"month" json:"month" validate:"min=1,max=12"`
	AccountAgeDays     int     `form:"account_age_days" json:"account_age_days" validate:"min=0"`
	PaymentDelayDays   int     `form:"payment_delay_days" json:"payment_delay_days" validate:"min=0"`
	Amount             float64 `form:"amount" json:"amount" validate:"gte=0"`
	PaymentFailures    int     `form:"payment_failures" json:"payment_failures" validate:"min=0"`
	PaymentStatus      string  `form:"payment_status" json:"payment_status" validate:"required,payment_status"`
	Country            string  `form:"country" json:"country" validate:"required,max=64"`
	City               string  `form:"city" json:"city" validate:"required,max=64"`
	Newsletter         string  `form:"newsletter" json:"newsletter" validate:"oneof=True False"`
	Satisfaction       int     `form:"satisfaction" json:"satisfaction" validate:"min=1,max=5"`
	PriorCancellations int     `form:"prior_cancellations" json:"prior_cancellations" validate:"min=0"`
	Modifications      int     `form:"modifications" json:"modifications" validate:"min=0"`
	PaymentAttempts    int     `form:"payment_attempts" json:"payment_attempts" validate:"min=0"`
	EmailDomain        string  `form:"email_domain" json:"email_domain" validate:"required,max=255"`

	// Empty derives the flag from EmailDomain.
	SuspiciousDomain string `form:"suspicious_domain" json:"suspicious_domain" validate:"omitempty,oneof=True False"`
}

// DefaultInput is the form's initial state.
func DefaultInput() Input {
	return Input{
		Places:          2,
		Travellers:      2,
		Status:          reservation.StatusConfirmed,
		ReminderSent:    "True",
		FlightFrequency: 30,
		Hour:            12,
		DayOfWeek:       0,
		Month:           1,
		AccountAgeDays:  10,
		Amount:          100,
		PaymentStatus:   reservation.PaymentSucceeded,
		Country:         "France",
		City:            "Paris",
		Newsletter:      "True",
		Satisfaction:    3,
		PaymentAttempts: 1,
		EmailDomain:     "gmail.com",
	}
}

// FieldError names an input field that failed validation and the rule it broke.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError lists every invalid field of an Input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msg := "invalid input:"
	for _, f := range e.Fields {
		msg += " " + f.Field + " (" + f.Rule + ")"
	}
	return msg
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("reservation_status", func(fl validator.FieldLevel) bool {
		return slices.Contains(reservation.Statuses, fl.Field().String())
	})
	v.RegisterValidation("payment_status", func(fl validator.FieldLevel) bool {
		return slices.Contains(reservation.PaymentStatuses, fl.Field().String())
	})
	return v
}

var validate = newValidator()

// Validate checks in against its tag rules. It returns a *ValidationError
// listing the offending fields.
func (in Input) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

// Values returns the input as a cleaned-table row keyed by column name.
func (in Input) Values() map[string]string {
	suspicious := in.SuspiciousDomain
	if suspicious == "" {
		suspicious = dataset.FormatBool(reservation.IsSuspiciousDomain(in.EmailDomain))
	}
	itoa := strconv.Itoa
	return map[string]string{
		reservation.ColPlaces:             itoa(in.Places),
		reservation.ColTravellers:         itoa(in.Travellers),
		reservation.ColStatus:             in.Status,
		reservation.ColReminderSent:       in.ReminderSent,
		reservation.ColFlightFrequency:    itoa(in.FlightFrequency),
		reservation.ColHour:               itoa(in.Hour),
		reservation.ColDayOfWeek:          itoa(in.DayOfWeek),
		reservation.ColMonth:              itoa(in.Month),
		reservation.ColAccountAgeDays:     itoa(in.AccountAgeDays),
		reservation.ColPaymentDelayDays:   itoa(in.PaymentDelayDays),
		reservation.ColAmount:             strconv.FormatFloat(in.Amount, 'f', -1, 64),
		reservation.ColPaymentFailures:    itoa(in.PaymentFailures),
		reservation.ColPaymentStatus:      in.PaymentStatus,
		reservation.ColCountry:            in.Country,
		reservation.ColCity:               in.City,
		reservation.ColNewsletter:         in.Newsletter,
		reservation.ColSatisfaction:       itoa(in.Satisfaction),
		reservation.ColPriorCancellations: itoa(in.PriorCancellations),
		reservation.ColModifications:      itoa(in.Modifications),
		reservation.ColPaymentAttempts:    itoa(in.PaymentAttempts),
		reservation.ColEmailDomain:        in.EmailDomain,
		reservation.ColSuspiciousDomain:   suspicious,
	}
}
