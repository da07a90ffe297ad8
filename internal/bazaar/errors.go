// Package bazaar holds the domain rules of the Kinderbasar: error codes, event phase
// gating, date window validation, seller roles, prices and settlement. It does no I/O.
package bazaar

import "errors"

// Kind groups error codes by how callers should react.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindClosed     Kind = "closed"
	KindConflict   Kind = "conflict"
	KindLimit      Kind = "limit"
	KindInvalid    Kind = "invalid"
	KindForbidden  Kind = "forbidden"
	KindAuth       Kind = "auth"
	KindSaveFailed Kind = "save_failed"
)

// Error is a typed domain failure with a stable code and a German user message.
type Error struct {
	Code    string
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches on Code so wrapped copies with a different message still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithDetail returns a copy carrying an extra detail in its message.
func (e *Error) WithDetail(detail string) *Error {
	return &Error{Code: e.Code, Kind: e.Kind, Message: e.Message + " (" + detail + ")"}
}

func newError(code string, kind Kind, msg string) *Error {
	return &Error{Code: code, Kind: kind, Message: msg}
}

var (
	ErrEventNotFound        = newError("event_not_found", KindNotFound, "Der Basar wurde nicht gefunden.")
	ErrRegistrationNotFound = newError("registration_not_found", KindNotFound, "Die Registrierung wurde nicht gefunden.")
	ErrSellerNotFound       = newError("seller_not_found", KindNotFound, "Der Verkäufer wurde nicht gefunden.")
	ErrArticleNotFound      = newError("article_not_found", KindNotFound, "Der Artikel wurde nicht gefunden.")
	ErrBillingNotFound      = newError("billing_not_found", KindNotFound, "Der Kassiervorgang wurde nicht gefunden.")
	ErrPlanningNotFound     = newError("planning_not_found", KindNotFound, "Die Helferplanung wurde nicht gefunden.")
	ErrUserNotFound         = newError("user_not_found", KindNotFound, "Der Benutzer wurde nicht gefunden.")
	ErrExportNotFound       = newError("export_not_found", KindNotFound, "Der Etiketten-Export wurde nicht gefunden.")
	ErrEmailNotFound        = newError("email_not_found", KindNotFound, "Die E-Mail wurde nicht gefunden.")

	ErrRegistrationClosed = newError("registration_closed", KindClosed, "Die Registrierung ist geschlossen.")
	ErrEventExpired       = newError("event_expired", KindClosed, "Der Basar ist bereits abgelaufen.")
	ErrEditArticlesClosed = newError("edit_articles_closed", KindClosed, "Artikel können nicht mehr bearbeitet werden.")
	ErrLabelPickupClosed  = newError("label_pickup_closed", KindClosed, "Die Etikettenabholung ist nicht geöffnet.")
	ErrBillingNotOpen     = newError("billing_not_open", KindClosed, "Kassieren ist für diesen Basar nicht möglich.")

	ErrEmailAlreadyRegistered = newError("email_already_registered", KindConflict, "Diese E-Mail-Adresse ist bereits registriert.")
	ErrArticleAlreadyBooked   = newError("article_already_booked", KindConflict, "Der Artikel wurde bereits kassiert.")
	ErrArticleNotEditable     = newError("article_not_editable", KindConflict, "Der Artikel wurde bereits kassiert und kann nicht geändert werden.")
	ErrBillingCompleted       = newError("billing_completed", KindConflict, "Der Kassiervorgang ist bereits abgeschlossen.")
	ErrBillingCancelled       = newError("billing_cancelled", KindConflict, "Der Kassiervorgang wurde storniert.")
	ErrArticleNotInBilling    = newError("article_not_in_billing", KindConflict, "Der Artikel gehört nicht zu diesem Kassiervorgang.")
	ErrEventHasRegistrations  = newError("event_has_registrations", KindConflict, "Der Basar hat bereits Registrierungen und kann nicht gelöscht werden.")
	ErrRegistrationDecided    = newError("registration_decided", KindConflict, "Über die Registrierung wurde bereits entschieden.")
	ErrSellerHasArticles      = newError("seller_has_articles", KindConflict, "Der Verkäufer hat bereits Artikel angelegt.")
	ErrHelperAlreadyAssigned  = newError("helper_already_assigned", KindConflict, "Der Helfer ist bereits eingetragen.")

	ErrSellerLimitExceeded  = newError("seller_limit_exceeded", KindLimit, "Die maximale Anzahl an Verkäufern ist erreicht.")
	ErrArticleLimitExceeded = newError("article_limit_exceeded", KindLimit, "Die maximale Anzahl an Artikeln ist erreicht.")
	ErrPlanningFull         = newError("planning_full", KindLimit, "Die maximale Anzahl an Helfern ist erreicht.")

	ErrInvalidDateRange = newError("invalid_date_range", KindInvalid, "Der Zeitraum ist ungültig.")
	ErrInvalidPrice     = newError("invalid_price", KindInvalid, "Der Preis muss größer als 0 und durch 0,50 € teilbar sein.")
	ErrInvalidInput     = newError("invalid_input", KindInvalid, "Die Eingabe ist ungültig.")
	ErrInvalidRole      = newError("invalid_role", KindInvalid, "Die Rolle ist ungültig.")

	ErrForbidden            = newError("forbidden", KindForbidden, "Keine Berechtigung.")
	ErrInvalidCredentials   = newError("invalid_credentials", KindAuth, "E-Mail oder Passwort ist falsch.")
	ErrTwoFactorRequired    = newError("two_factor_required", KindAuth, "Bitte den Code der Authenticator-App eingeben.")
	ErrInvalidTwoFactorCode = newError("invalid_two_factor_code", KindAuth, "Der Authenticator-Code ist ungültig.")
	ErrInvalidToken         = newError("invalid_token", KindAuth, "Der Link ist ungültig oder abgelaufen.")

	ErrSaveFailed = newError("save_failed", KindSaveFailed, "Speichern fehlgeschlagen. Bitte erneut versuchen.")
)

// AsError extracts a domain error from err. Non-domain errors report false.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
