/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chainguard.dev/webster/store"
	"github.com/chainguard-dev/clog"
	"golang.org/x/time/rate"
)

// NotifyTimeout bounds one notification POST.
const NotifyTimeout = 10 * time.Second

var (
	discordColors = map[store.Severity]int{
		store.SeverityError:   0xE74C3C,
		store.SeverityWarning: 0xFF8C00,
		store.SeverityInfo:    0x3498DB,
	}
	discordIcons = map[store.Severity]string{
		store.SeverityError:   "🔴",
		store.SeverityWarning: "🟡",
		store.SeverityInfo:    "🔵",
	}
)

const (
	defaultColor = 0x7F8C8D
	defaultIcon  = "⚪"
)

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type genericDiagnostic struct {
	Severity  store.Severity `json:"severity"`
	ShortDesc string         `json:"short_desc"`
	FullDesc  string         `json:"full_desc"`
}

type genericPayload struct {
	Event      string            `json:"event"`
	Website    string            `json:"website"`
	Diagnostic genericDiagnostic `json:"diagnostic"`
}

// Payload renders the notification body for one diagnostic. Formats
// other than discord get the generic event shape.
func Payload(format, website string, d store.Diagnostic) any {
	if format == store.FormatDiscord {
		color, ok := discordColors[d.Severity]
		if !ok {
			color = defaultColor
		}
		icon, ok := discordIcons[d.Severity]
		if !ok {
			icon = defaultIcon
		}
		return discordPayload{Embeds: []discordEmbed{{
			Title:       icon + " " + d.ShortDesc,
			Description: d.FullDesc,
			Color:       color,
			Fields: []discordField{
				{Name: "Severity", Value: strings.ToUpper(string(d.Severity)), Inline: true},
				{Name: "Website", Value: website, Inline: true},
			},
		}}}
	}
	return genericPayload{
		Event:   "diagnostic_alert",
		Website: website,
		Diagnostic: genericDiagnostic{
			Severity:  d.Severity,
			ShortDesc: d.ShortDesc,
			FullDesc:  d.FullDesc,
		},
	}
}

// Notifier posts new diagnostics to an entry's notification target.
type Notifier struct {
	HTTPClient *http.Client

	// Limiter paces deliveries. Discord rejects bursts on a single webhook
	// with 429. Nil sends without pacing.
	Limiter *rate.Limiter
}

// Notify delivers one notification per diagnostic. Failures are logged and
// counted; they never stop the remaining deliveries.
func (n *Notifier) Notify(ctx context.Context, settings store.VerificationSettings, website string, diags []store.Diagnostic) {
	if settings.WebhookURL == "" {
		return
	}
	format := settings.WebhookFormat
	if format != store.FormatDiscord {
		format = store.FormatGeneric
	}
	for _, d := range diags {
		log := clog.FromContext(ctx).With("diagnostic_id", d.ID, "format", format)
		if n.Limiter != nil {
			if err := n.Limiter.Wait(ctx); err != nil {
				log.With("error", err).Warn("Notification delivery abandoned")
				return
			}
		}
		if err := n.post(ctx, settings, Payload(format, website, d)); err != nil {
			notifications.WithLabelValues(format, "failed").Inc()
			log.With("error", err).Warn("Notification delivery failed")
			continue
		}
		notifications.WithLabelValues(format, "delivered").Inc()
		log.Info("Notification delivered")
	}
}

func (n *Notifier) post(ctx context.Context, settings store.VerificationSettings, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, NotifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if settings.WebhookAuthHeaderKey != "" && settings.WebhookAuthHeaderValue != "" {
		req.Header.Set(settings.WebhookAuthHeaderKey, settings.WebhookAuthHeaderValue)
	}

	client := n.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification target returned %s", resp.Status)
	}
	return nil
}
