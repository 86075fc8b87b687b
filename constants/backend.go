package constants

// Extraction backend names, as accepted by config and transports.
const (
	BackendRegex  = "regex"
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
)

// Backends lists every known backend name.
var Backends = []string{BackendRegex, BackendOpenAI, BackendGemini}

// PDF converter names.
const (
	ConverterLedongthuc = "ledongthuc"
	ConverterPdftotext  = "pdftotext"
	ConverterTesseract  = "tesseract"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)
