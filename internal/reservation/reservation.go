// Package reservation defines the reservation record and the tabular schema
// shared by the generator, the cleaning stage, training and prediction.
package reservation

import "time"

// Label is the fraud label attached to a record at generation time.
type Label int

const (
	Legit Label = 0
	Fraud Label = 1
)

func (l Label) String() string {
	if l == Fraud {
		return "fraud"
	}
	return "legit"
}

// TimeLayout is the layout used for Date_Reservation.
const TimeLayout = "2006-01-02 15:04:05"

// Categorical values. Label encoders fitted at training time depend on these
// exact strings, so they must not change between training and inference.
const (
	StatusConfirmed = "confirmé"
	StatusCancelled = "annulé"
	StatusPending   = "en attente"

	PaymentSucceeded = "réussi"
	PaymentFailed    = "échoué"
)

var (
	Statuses        = []string{StatusConfirmed, StatusCancelled, StatusPending}
	PaymentStatuses = []string{PaymentSucceeded, PaymentFailed}
	EmailDomains    = []string{"gmail.com", "yahoo.com", "hotmail.com", "tempmail.com", "mailinator.com"}
	Countries       = []string{"Tunisia", "France", "USA", "Germany", "Morocco"}
	Cities          = []string{"Tunis", "Paris", "New York", "Berlin", "Casablanca"}
	PaymentModes    = []string{"credit_card", "paypal", "bank_transfer", "crypto"}
)

// SuspiciousDomains is the denylist of disposable-mail providers.
var SuspiciousDomains = map[string]struct{}{
	"tempmail.com":     {},
	"mailinator.com":   {},
	"10minutemail.com": {},
}

// IsSuspiciousDomain reports whether domain is a known disposable-mail provider.
func IsSuspiciousDomain(domain string) bool {
	_, ok := SuspiciousDomains[domain]
	return ok
}

// Column names, in file order.
const (
	ColReservationID      = "reservation_id"
	ColUserID             = "user_id"
	ColReservedAt         = "Date_Reservation"
	ColPlaces             = "nbr_place"
	ColTravellers         = "number_of_voyageurs"
	ColStatus             = "Status"
	ColReminderSent       = "reminderSent"
	ColFlightFrequency    = "volId_frequency"
	ColHour               = "reservation_hour"
	ColDayOfWeek          = "reservation_dayofweek"
	ColMonth              = "reservation_month"
	ColAccountAgeDays     = "account_age_days"
	ColPaymentDelayDays   = "payment_delay_days"
	ColAmount             = "total_payment_amount"
	ColPaymentFailures    = "payment_failures_count"
	ColPaymentStatus      = "payment_status"
	ColCountry            = "Pays"
	ColCity               = "Ville"
	ColNewsletter         = "newsletter_abonne"
	ColSatisfaction       = "satisfaction_client"
	ColPriorCancellations = "annulations_precedentes"
	ColModifications      = "modifications_reservation"
	ColPaymentAttempts    = "tentatives_paiement"
	ColEmailDomain        = "email_domain"
	ColSuspiciousDomain   = "suspicious_email_domain"
	ColLabel              = "is_fraud"

	// Added by the cleaning stage.
	ColDate = "reservation_date"
	ColTime = "reservation_time"
)

// Columns is the raw table header. Downstream stages address columns by name,
// and the order is what WriteRecords emits.
var Columns = []string{
	ColReservationID,
	ColUserID,
	ColReservedAt,
	ColPlaces,
	ColTravellers,
	ColStatus,
	ColReminderSent,
	ColFlightFrequency,
	ColHour,
	ColDayOfWeek,
	ColMonth,
	ColAccountAgeDays,
	ColPaymentDelayDays,
	ColAmount,
	ColPaymentFailures,
	ColPaymentStatus,
	ColCountry,
	ColCity,
	ColNewsletter,
	ColSatisfaction,
	ColPriorCancellations,
	ColModifications,
	ColPaymentAttempts,
	ColEmailDomain,
	ColSuspiciousDomain,
	ColLabel,
}

// Record is one synthetic reservation event. Records are generated once and
// never mutated afterwards.
type Record struct {
	ReservationID string
	UserID        string

	ReservedAt time.Time
	Hour       int
	DayOfWeek  int // Monday=0
	Month      int

	Places          int
	Travellers      int
	Status          string
	ReminderSent    bool
	FlightFrequency int

	AccountAgeDays   int
	PaymentDelayDays int
	Amount           float64
	PaymentFailures  int
	PaymentStatus    string
	PaymentMode      string

	Country      string
	City         string
	Newsletter   bool
	Satisfaction int

	PriorCancellations int
	Modifications      int
	PaymentAttempts    int

	EmailDomain      string
	SuspiciousDomain bool

	Label Label

	// Not written to the table; kept so the derived columns can be checked
	// against their sources.
	CreatedAt time.Time
	PaidAt    time.Time
	Email     string
}

// Weekday returns t's day of week with Monday as 0.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WholeDays returns the number of whole days in d, truncated toward negative
// infinity like a calendar day difference.
func WholeDays(d time.Duration) int {
	days := d / (24 * time.Hour)
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return int(days)
}
