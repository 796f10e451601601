package commands

// Error messages
const (
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrHistoryStoreUnavailable  = "history archive unavailable (set history.persist: true)"
	ErrKeyRequired              = "--key is required"
	ErrQueryRequired            = "--query required"
	ErrQueryOrTemplateRequired  = "provide query text, --template, or --file"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoHistoryRecorded        = "No history recorded yet."
	MsgHistoryCleared           = "History cleared."
	MsgCacheCleared             = "Cache cleared."
	MsgAborted                  = "Aborted."
)

// Defaults
const (
	DefaultHistorySearchLimit = 20
	envKeyEditor              = "EDITOR"
	defaultEditor             = "vi"
)
