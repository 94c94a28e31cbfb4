package convdto

// Response headers describing a finished conversion.
const (
	HeaderRequestID = "X-Request-Id"
	HeaderPlies     = "X-Ascn-Plies"
	HeaderResult    = "X-Ascn-Result"
	HeaderCached    = "X-Ascn-Cached"
)

// Summary is read back from the conversion headers by clients.
type Summary struct {
	RequestID string
	Plies     int
	Result    string
	Cached    bool
}

type ConvertResponse struct {
	Summary Summary
	Body    []byte
}

// ConversionRecord is one row of the conversion log.
type ConversionRecord struct {
	ID          string `json:"id"`
	Direction   string `json:"direction"`
	InputSHA256 string `json:"input_sha256"`
	Plies       int    `json:"plies"`
	Result      string `json:"result"`
	CreatedAt   string `json:"created_at"`
	DurationMS  int64  `json:"duration_ms"`
}

type HistoryResponse struct {
	Conversions []ConversionRecord `json:"conversions"`
}
