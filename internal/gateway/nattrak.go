package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/yegors/co-france/pkg/logger"
)

const (
	nattrakService        = "nattrak"
	nattrakClearancesPath = "/api/plugins"
)

// ClearanceRecord is one entry of the oceanic clearance feed. Every field
// is optional upstream; absent fields decode as "".
type ClearanceRecord struct {
	Callsign string `json:"callsign"`
	Status   string `json:"status"`
	Level    string `json:"level"` // flight level as text, e.g. "340"
}

// ClearanceService talks to the oceanic clearance service, which answers
// in JSON
type ClearanceService struct {
	client  *Client
	baseURL string
}

// NewClearanceService creates a clearance service client rooted at baseURL
func NewClearanceService(client *Client, baseURL string) *ClearanceService {
	return &ClearanceService{client: client, baseURL: baseURL}
}

// Clearances fetches the current clearance feed. Elements that are not
// objects with string fields are dropped; a body that is not a JSON array
// is a decode failure.
func (s *ClearanceService) Clearances(ctx context.Context) ([]ClearanceRecord, error) {
	const op = nattrakService + ".clearances"
	body, err := s.client.do(ctx, request{
		service:  nattrakService,
		endpoint: "clearances",
		method:   http.MethodGet,
		url:      joinURL(s.baseURL, nattrakClearancesPath),
		accept:   "application/json",
	})
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, s.client.decodeFailure(op, "JSON", body, err)
	}

	records := make([]ClearanceRecord, 0, len(raw))
	skipped := 0
	for _, item := range raw {
		var rec ClearanceRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		s.client.logger.Debug("Skipped malformed clearance records",
			logger.Int("skipped", skipped), logger.Int("kept", len(records)))
	}
	return records, nil
}
