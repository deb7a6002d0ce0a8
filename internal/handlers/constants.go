package handlers

const (
	ErrInvalidJSON           = "Invalid JSON body"
	ErrUnauthorized          = "Unauthorized"
	ErrInvalidCredentials    = "Identifiant ou mot de passe incorrect"
	ErrInvalidCSRFToken      = "Invalid CSRF token"
	ErrTooManyRequests       = "Too many requests. Please try again later."
	ErrInternalServerError   = "Internal server error"
	ErrMethodNotAllowed      = "Method Not Allowed"
	ErrUnknownCollection     = "Unknown collection"
	ErrUnknownSetting        = "Unknown setting"
	ErrSyncNotConfirmed      = "Synchronization overwrites local data; repeat with confirm=true"
	ErrMissingPublishPayload = "Missing data in request body. Required: members, news, events."
	ErrPublishFailed         = "An internal error occurred during the publish process."
	ErrEmailFailed           = "L'envoi de l'email a échoué."
)
