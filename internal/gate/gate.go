// Package gate hides verbose error responses from unauthenticated callers.
//
// The gate wraps a downstream handler. When the caller carries no identity and
// the downstream status code falls inside the configured sensitive range, the
// whole response is replaced with a fixed substitute that reveals nothing but
// the numeric status code. Everything else passes through unchanged.
package gate

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-set/v3"
	"github.com/rs/zerolog/log"
)

var (
	logger = log.With().Str("component", "gate").Logger()
)

const (
	defaultSensitiveRangeLow  = 400
	defaultSensitiveRangeHigh = 599
	defaultSubstituteStatus   = 401

	defaultSubstituteContentType = "text/html; charset=utf-8"

	defaultSubstituteBodyTemplate = `<!DOCTYPE html>
<html>
<head><title>Unauthorized</title></head>
<body>
<h1>Unauthorized</h1>
<p>The upstream application returned status %d. Sign in to see the full response.</p>
</body>
</html>
`
)

type Config struct {
	// SensitiveRangeLow and SensitiveRangeHigh bound the inclusive status code
	// interval considered too revealing for unauthenticated callers.
	SensitiveRangeLow  int `yaml:"sensitive_range_low"`
	SensitiveRangeHigh int `yaml:"sensitive_range_high"`

	// SubstituteStatus is the status code of the replacement response.
	SubstituteStatus int `yaml:"substitute_status"`

	SubstituteContentType string `yaml:"substitute_content_type"`

	// SubstituteBodyTemplate may contain a single %d verb which receives the
	// downstream status code. Without the verb the body is fully fixed.
	SubstituteBodyTemplate string `yaml:"substitute_body_template"`

	// ExemptPaths are exact request paths never gated, e.g. the health
	// endpoint and the login page itself. Only used by the HTTP binding.
	ExemptPaths []string `yaml:"exempt_paths"`
}

func (c *Config) applyDefaults() {
	if c.SensitiveRangeLow == 0 && c.SensitiveRangeHigh == 0 {
		c.SensitiveRangeLow = defaultSensitiveRangeLow
		c.SensitiveRangeHigh = defaultSensitiveRangeHigh
	}

	if c.SubstituteStatus == 0 {
		c.SubstituteStatus = defaultSubstituteStatus
	}

	if c.SubstituteContentType == "" {
		c.SubstituteContentType = defaultSubstituteContentType
	}

	if c.SubstituteBodyTemplate == "" {
		c.SubstituteBodyTemplate = defaultSubstituteBodyTemplate
	}
}

// Request is the part of the incoming request the gate decides on.
type Request struct {
	// Identity is the caller's identity marker. Empty means unauthenticated;
	// no distinction is made between "no session" and "session but empty".
	Identity string
}

// Response is what a downstream handler produces: status, headers, body.
type Response struct {
	Status int
	Header map[string]string
	Body   []byte
}

// Handler is the downstream capability the gate wraps.
type Handler func(req *Request) (*Response, error)

// Gate is stateless across requests; a single instance is safe for
// concurrent use.
type Gate struct {
	conf        Config
	exempt      *set.Set[string]
	bodyHasVerb bool
}

// New validates the configuration and builds a gate. Invalid range bounds are
// rejected here, before any request is processed.
func New(conf *Config) (*Gate, error) {
	c := *conf
	c.applyDefaults()

	if c.SensitiveRangeLow > c.SensitiveRangeHigh {
		return nil, fmt.Errorf("gate: sensitive range low %d > high %d", c.SensitiveRangeLow, c.SensitiveRangeHigh)
	}

	if c.SubstituteStatus < 100 || c.SubstituteStatus > 599 {
		return nil, fmt.Errorf("gate: substitute status %d is not a valid HTTP status", c.SubstituteStatus)
	}

	if strings.Count(c.SubstituteBodyTemplate, "%d") > 1 {
		return nil, fmt.Errorf("gate: substitute body template must contain at most one %%d verb")
	}

	return &Gate{
		conf:        c,
		exempt:      set.From(c.ExemptPaths),
		bodyHasVerb: strings.Contains(c.SubstituteBodyTemplate, "%d"),
	}, nil
}

// gated decides whether to replace the response. It is a pure function of the
// identity marker presence and the status code; the response body never
// participates in the decision.
func (g *Gate) gated(identity string, status int) bool {
	if strings.TrimSpace(identity) != "" {
		return false
	}
	return status >= g.conf.SensitiveRangeLow && status <= g.conf.SensitiveRangeHigh
}

// substitute builds a fresh replacement response. Only the numeric downstream
// status leaks into it.
func (g *Gate) substitute(downstreamStatus int) *Response {
	body := g.conf.SubstituteBodyTemplate
	if g.bodyHasVerb {
		body = fmt.Sprintf(body, downstreamStatus)
	}

	return &Response{
		Status: g.conf.SubstituteStatus,
		Header: map[string]string{"Content-Type": g.conf.SubstituteContentType},
		Body:   []byte(body),
	}
}

// Handle invokes next exactly once and either returns its response untouched
// or a wholly new substitute. A downstream error propagates verbatim.
func (g *Gate) Handle(req *Request, next Handler) (*Response, error) {
	resp, err := next(req)
	if err != nil {
		return nil, err
	}

	if !g.gated(req.Identity, resp.Status) {
		return resp, nil
	}

	return g.substitute(resp.Status), nil
}
