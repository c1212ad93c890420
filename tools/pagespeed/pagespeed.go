/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package pagespeed runs Lighthouse audits through the PageSpeed Insights API.
package pagespeed

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"chainguard.dev/webster/agents/toolcall"
	"github.com/chainguard-dev/clog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/pagespeedonline/v5"
)

const (
	// DefaultEndpoint is the PageSpeed Insights API base path.
	DefaultEndpoint = "https://pagespeedonline.googleapis.com/"
	// Timeout bounds one audit.
	Timeout = 60 * time.Second

	opportunityThreshold = 0.9
	maxOpportunities     = 5
)

// metrics are reported in this order.
var metrics = []struct{ label, audit string }{
	{"FCP", "first-contentful-paint"},
	{"LCP", "largest-contentful-paint"},
	{"TBT", "total-blocking-time"},
	{"CLS", "cumulative-layout-shift"},
	{"SI", "speed-index"},
	{"TTI", "interactive"},
}

// Client calls the PageSpeed Insights API.
type Client struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
}

// New returns a client for the public endpoint.
func New(apiKey string) *Client {
	return &Client{
		Endpoint:   DefaultEndpoint,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: Timeout},
	}
}

// Report is the digest of one audit run.
type Report struct {
	Strategy      string
	Score         float64 // 0-100
	Metrics       [][2]string
	Opportunities []string
}

// String renders the report the way the model reads it.
func (r Report) String() string {
	parts := []string{fmt.Sprintf("Performance score (%s): %.0f/100", r.Strategy, r.Score)}
	for _, m := range r.Metrics {
		parts = append(parts, m[0]+": "+m[1])
	}
	if len(r.Opportunities) > 0 {
		parts = append(parts, "Top opportunities:\n"+strings.Join(r.Opportunities, "\n"))
	}
	return strings.Join(parts, "\n")
}

// Audit runs a Lighthouse performance audit for target.
func (c *Client) Audit(ctx context.Context, target, strategy string) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	// The HTTP client carries no credentials, so the key goes on the call.
	svc, err := pagespeedonline.NewService(ctx,
		option.WithHTTPClient(c.HTTPClient),
		option.WithEndpoint(c.Endpoint))
	if err != nil {
		return Report{}, fmt.Errorf("creating pagespeed service: %w", err)
	}
	var opts []googleapi.CallOption
	if c.APIKey != "" {
		opts = append(opts, googleapi.QueryParameter("key", c.APIKey))
	}
	resp, err := svc.Pagespeedapi.Runpagespeed(target).
		Strategy(strings.ToUpper(strategy)).
		Category("PERFORMANCE").
		Context(ctx).
		Do(opts...)
	if err != nil {
		return Report{}, err
	}
	return digest(resp.LighthouseResult, strategy)
}

func digest(lr *pagespeedonline.LighthouseResultV5, strategy string) (Report, error) {
	if lr == nil || lr.Categories == nil || lr.Categories.Performance == nil {
		return Report{}, fmt.Errorf("response has no performance score")
	}
	perf, ok := score(lr.Categories.Performance.Score)
	if !ok {
		return Report{}, fmt.Errorf("response has no performance score")
	}
	r := Report{Strategy: strategy, Score: perf * 100}

	for _, m := range metrics {
		a, ok := lr.Audits[m.audit]
		if !ok {
			return Report{}, fmt.Errorf("response is missing the %s audit", m.audit)
		}
		r.Metrics = append(r.Metrics, [2]string{m.label, a.DisplayValue})
	}

	type ranked struct {
		id    string
		a     pagespeedonline.LighthouseAuditResultV5
		score float64
	}
	var opps []ranked
	for id, a := range lr.Audits {
		if detailsType(a.Details) != "opportunity" {
			continue
		}
		s, ok := score(a.Score)
		if !ok {
			s = 1
		} else if s >= opportunityThreshold {
			continue
		}
		opps = append(opps, ranked{id, a, s})
	}
	slices.SortFunc(opps, func(x, y ranked) int {
		return cmp.Or(cmp.Compare(x.score, y.score), cmp.Compare(x.id, y.id))
	})
	for _, o := range opps[:min(len(opps), maxOpportunities)] {
		r.Opportunities = append(r.Opportunities, fmt.Sprintf("- %s: %s", o.a.Title, o.a.DisplayValue))
	}
	return r, nil
}

// score reads a Lighthouse score, which the API leaves null when an audit
// is not applicable.
func score(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func detailsType(raw googleapi.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var d struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return ""
	}
	return d.Type
}

type args struct {
	URL string `json:"url" jsonschema:"required,description=The full URL to audit."`
}

// Tool returns the get_page_speed tool.
func (c *Client) Tool() toolcall.Tool {
	return toolcall.Typed("get_page_speed",
		"Run a Lighthouse performance audit on a URL using Google PageSpeed Insights. Returns a performance score, Core Web Vitals (LCP, FCP, CLS, TBT, TTI, Speed Index) and a list of the top improvement opportunities.",
		args{},
		func(ctx context.Context, a args) string {
			report, err := c.Audit(ctx, a.URL, "mobile")
			if err != nil {
				clog.FromContext(ctx).With("url", a.URL, "error", err).Warn("PageSpeed audit failed")
				return fmt.Sprintf("Error running PageSpeed audit for %s: %v", a.URL, err)
			}
			clog.FromContext(ctx).With("url", a.URL, "score", int(report.Score)).Info("PageSpeed audit complete")
			return report.String()
		})
}
