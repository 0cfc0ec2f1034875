package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/BurntSushi/toml"
)

const (
	gateService        = "gate"
	gateAirportsPath   = "/api/cfr/stand"
	gateStandQueryPath = "/api/cfr/stand/query"
)

// StandQuery identifies the arriving flight a stand is requested for
type StandQuery struct {
	Callsign     string
	Origin       string
	Destination  string
	WakeCategory string
}

// GateService talks to the stand assignment service, which answers in TOML
type GateService struct {
	client  *Client
	baseURL string
}

// NewGateService creates a gate service client rooted at baseURL
func NewGateService(client *Client, baseURL string) *GateService {
	return &GateService{client: client, baseURL: baseURL}
}

type airportsDocument struct {
	Data struct {
		ICAOs *[]string `toml:"icaos"`
	} `toml:"data"`
}

type standDocument struct {
	Data struct {
		Stand string `toml:"stand"`
	} `toml:"data"`
}

// SupportedAirports returns the ICAO codes the service assigns gates for.
// A document without data.icaos is a lookup miss; an empty list is not.
func (g *GateService) SupportedAirports(ctx context.Context) ([]string, error) {
	const op = gateService + ".airports"
	body, err := g.client.do(ctx, request{
		service:  gateService,
		endpoint: "airports",
		method:   http.MethodGet,
		url:      joinURL(g.baseURL, gateAirportsPath),
	})
	if err != nil {
		return nil, err
	}

	var doc airportsDocument
	if _, err := toml.Decode(string(body), &doc); err != nil {
		return nil, g.client.decodeFailure(op, "TOML", body, err)
	}
	if doc.Data.ICAOs == nil {
		return nil, lookupMiss(op, "data.icaos")
	}
	return *doc.Data.ICAOs, nil
}

// QueryStand asks for a stand for q. An absent or empty data.stand is a
// lookup miss.
func (g *GateService) QueryStand(ctx context.Context, q StandQuery) (string, error) {
	const op = gateService + ".stand_query"
	form := url.Values{}
	form.Set("callsign", q.Callsign)
	form.Set("dep", q.Origin)
	form.Set("arr", q.Destination)
	form.Set("wtc", q.WakeCategory)

	body, err := g.client.do(ctx, request{
		service:  gateService,
		endpoint: "stand_query",
		method:   http.MethodPost,
		url:      joinURL(g.baseURL, gateStandQueryPath),
		form:     form,
	})
	if err != nil {
		return "", err
	}

	var doc standDocument
	if _, err := toml.Decode(string(body), &doc); err != nil {
		return "", g.client.decodeFailure(op, "TOML", body, err)
	}
	if doc.Data.Stand == "" {
		return "", lookupMiss(op, "data.stand")
	}
	return doc.Data.Stand, nil
}
