// Package generator produces synthetic support tickets for demos and load
// tests. Each ticket is uploaded to the raw bucket and announced on the
// notification stream, which is the same path real tickets take.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/supporthq/ticket-enrichment-platform/internal/schema"
	"github.com/supporthq/ticket-enrichment-platform/pkg/config"
	"github.com/supporthq/ticket-enrichment-platform/pkg/logger"
)

// ObjectUploader writes a raw ticket object.
type ObjectUploader interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// Notifier announces an uploaded ticket on the queue.
type Notifier interface {
	Publish(ctx context.Context, body []byte) error
}

type template struct {
	subject      string
	body         string
	urgencyHints []string
}

var templates = map[string][]template{
	"login_issue": {
		{
			subject:      "Cannot login to my account",
			body:         "I've been trying to login for the past {time_period} but keep getting '{error_msg}'. This is urgent as I need to {task}. My username is {username}.",
			urgencyHints: []string{"urgent", "critical", "immediately", "asap"},
		},
		{
			subject:      "Password reset not working",
			body:         "The password reset link I received doesn't work. When I click it, I get a '{error_msg}'. I've tried {attempts} times. Can you help?",
			urgencyHints: []string{"need help", "please help"},
		},
		{
			subject:      "Account locked after failed attempts",
			body:         "My account got locked after I mistyped my password a few times. I need urgent access to {task}. Account email: {email}",
			urgencyHints: []string{"urgent", "locked", "critical"},
		},
	},
	"payment_issue": {
		{
			subject:      "Charged twice for the same order",
			body:         "I was charged ${amount} twice on {date} for order #{order_id}. I only ordered once but see two charges on my card. Please refund the duplicate charge urgently.",
			urgencyHints: []string{"urgently", "refund", "duplicate"},
		},
		{
			subject:      "Subscription renewal failed",
			body:         "My subscription renewal failed with error '{error_msg}'. My card is valid and has sufficient funds. Account: {username}. Please help resolve this.",
			urgencyHints: []string{"failed", "help"},
		},
		{
			subject:      "Refund request for cancelled order",
			body:         "I cancelled order #{order_id} on {date} but haven't received my refund yet. The amount is ${amount}. When can I expect the refund?",
			urgencyHints: []string{"when", "expect"},
		},
	},
	"bug_report": {
		{
			subject:      "Application crashes when {action}",
			body:         "The application crashes every time I try to {action}. I'm on {platform} version {version}. Error message: '{error_msg}'. This is preventing me from {task}.",
			urgencyHints: []string{"crashes", "preventing", "every time"},
		},
		{
			subject:      "Data not syncing across devices",
			body:         "My {data_type} isn't syncing between my {device1} and {device2}. I made changes on {device1} hours ago but they're not showing on {device2}. Using version {version}.",
			urgencyHints: []string{"not syncing", "not showing"},
		},
		{
			subject:      "Export feature producing corrupted files",
			body:         "When I export my {data_type} to {format}, the file is corrupted and won't open. Tried {attempts} times with the same result.",
			urgencyHints: []string{"corrupted", "won't open"},
		},
	},
	"feature_request": {
		{
			subject:      "Add {feature_name} feature",
			body:         "It would be great if you could add {feature_name} to the platform. This would help with {benefit} and make the workflow much more efficient. Many users in {community} have requested this.",
			urgencyHints: []string{"would be great", "helpful"},
		},
		{
			subject:      "Suggestion: {feature_name}",
			body:         "I've been using your platform for {time_period} and love it! One feature that would make it even better is {feature_name}. This would be useful for {use_case}.",
			urgencyHints: []string{"love it", "even better"},
		},
	},
	"account_issue": {
		{
			subject:      "Cannot update profile information",
			body:         "I'm trying to update my {field} in my profile settings but keep getting error '{error_msg}'. I've tried on both {device1} and {device2} with no success.",
			urgencyHints: []string{"cannot", "no success"},
		},
		{
			subject:      "Account deletion request",
			body:         "I would like to delete my account and all associated data. My account email is {email}. Please confirm when this is completed and provide documentation.",
			urgencyHints: []string{"delete", "confirm"},
		},
	},
	"billing_issue": {
		{
			subject:      "Invoice incorrect for {month}",
			body:         "My {month} invoice shows ${amount} but I expected ${expected_amount} based on my plan. Invoice #: {invoice_id}. Can you review this?",
			urgencyHints: []string{"incorrect", "review"},
		},
		{
			subject:      "Need receipt for expense report",
			body:         "I need an official receipt for my {month} payment of ${amount} for my expense report. Can you email this to {email}?",
			urgencyHints: []string{"need", "can you"},
		},
	},
}

var variables = map[string][]string{
	"time_period":     {"hours", "2 hours", "3 hours", "half a day", "the whole day"},
	"error_msg":       {"Invalid credentials", "Session expired", "Server error 500", "Access denied", "Too many attempts"},
	"task":            {"complete my work", "access important files", "finish a project", "meet a deadline", "submit my report"},
	"amount":          {"29.99", "49.99", "99.99", "149.99", "19.99"},
	"date":            {"yesterday", "last week", "two days ago", "Monday", "last Friday"},
	"action":          {"uploading a file", "saving changes", "opening a document", "generating a report", "exporting data"},
	"platform":        {"Windows 11", "macOS Sonoma", "Ubuntu 22.04", "iOS 17", "Android 14"},
	"version":         {"2.5.1", "2.6.0", "3.0.1", "2.4.5", "3.1.0"},
	"data_type":       {"documents", "settings", "contacts", "files", "preferences"},
	"device1":         {"laptop", "desktop", "phone", "tablet"},
	"device2":         {"phone", "tablet", "laptop", "desktop"},
	"format":          {"PDF", "CSV", "JSON", "Excel"},
	"feature_name":    {"dark mode", "bulk export", "keyboard shortcuts", "two-factor authentication", "advanced search"},
	"benefit":         {"easier navigation", "better security", "improved productivity", "faster workflows"},
	"community":       {"the forum", "Reddit", "social media", "user groups"},
	"use_case":        {"team collaboration", "data analysis", "reporting", "automation"},
	"field":           {"email address", "phone number", "billing address", "company name"},
	"month":           {"January", "February", "March", "April", "May"},
	"expected_amount": {"19.99", "29.99", "39.99"},
	"attempts":        {"3", "5", "several", "multiple"},
}

var categories = []string{
	"login_issue", "payment_issue", "bug_report",
	"feature_request", "account_issue", "billing_issue",
}

var priorities = []string{"low", "medium", "high", "critical"}
var sources = []string{"email", "web", "api", "chat"}

// Generator uploads synthetic tickets and publishes their notifications.
type Generator struct {
	uploader ObjectUploader
	notifier Notifier
	cfg      config.GeneratorConfig
	bucket   string
	rng      *rand.Rand
	logger   *slog.Logger
}

func New(uploader ObjectUploader, notifier Notifier, cfg config.GeneratorConfig, rawBucket string) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		uploader: uploader,
		notifier: notifier,
		cfg:      cfg,
		bucket:   rawBucket,
		rng:      rand.New(rand.NewSource(seed)),
		logger:   logger.WithComponent("generator"),
	}
}

// GenerateTicket builds one random ticket.
func (g *Generator) GenerateTicket() *schema.RawTicket {
	category := categories[g.rng.Intn(len(categories))]
	tmpls := templates[category]
	tmpl := tmpls[g.rng.Intn(len(tmpls))]

	subject := tmpl.subject
	body := tmpl.body
	for name, values := range variables {
		placeholder := "{" + name + "}"
		if strings.Contains(subject, placeholder) || strings.Contains(body, placeholder) {
			value := values[g.rng.Intn(len(values))]
			subject = strings.ReplaceAll(subject, placeholder, value)
			body = strings.ReplaceAll(body, placeholder, value)
		}
	}
	body = strings.ReplaceAll(body, "{username}", fmt.Sprintf("user%d", 1000+g.rng.Intn(9000)))
	body = strings.ReplaceAll(body, "{email}", fmt.Sprintf("user%d@example.com", 1000+g.rng.Intn(9000)))
	body = strings.ReplaceAll(body, "{order_id}", fmt.Sprintf("ORD-%d", 10000+g.rng.Intn(90000)))
	body = strings.ReplaceAll(body, "{invoice_id}", fmt.Sprintf("INV-%d", 1000+g.rng.Intn(9000)))

	if g.rng.Float64() < 0.3 && len(tmpl.urgencyHints) > 0 {
		hint := tmpl.urgencyHints[g.rng.Intn(len(tmpl.urgencyHints))]
		if !strings.Contains(strings.ToLower(body), hint) {
			body = body + " This is " + hint + "!"
		}
	}

	return &schema.RawTicket{
		TicketID:   fmt.Sprintf("DEMO-%d", 10000+g.rng.Intn(90000)),
		CustomerID: fmt.Sprintf("CUST-%d", 1000+g.rng.Intn(9000)),
		Subject:    subject,
		Body:       body,
		CreatedAt:  time.Now().UTC().Unix(),
		Priority:   priorities[g.rng.Intn(len(priorities))],
		Metadata: schema.TicketMetadata{
			Source:   sources[g.rng.Intn(len(sources))],
			Language: "en",
			Tags:     []string{},
		},
	}
}

// Emit uploads one ticket and publishes its notification.
func (g *Generator) Emit(ctx context.Context, ticket *schema.RawTicket) error {
	payload, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("marshal ticket %s: %w", ticket.TicketID, err)
	}
	key := ticket.TicketID + ".json"
	if err := g.uploader.PutObject(ctx, g.bucket, key, payload); err != nil {
		return fmt.Errorf("upload ticket %s: %w", ticket.TicketID, err)
	}

	note, err := json.Marshal(map[string]any{
		"records": []map[string]string{{"bucket": g.bucket, "key": key}},
	})
	if err != nil {
		return fmt.Errorf("marshal notification for %s: %w", ticket.TicketID, err)
	}
	if err := g.notifier.Publish(ctx, note); err != nil {
		return fmt.Errorf("publish notification for %s: %w", ticket.TicketID, err)
	}
	g.logger.Info("generated ticket", "ticket_id", ticket.TicketID, "subject", ticket.Subject)
	return nil
}

// Run produces cfg.Count tickets (or until ctx is cancelled when Count is
// zero), pacing by cfg.Interval. Concurrency > 1 fans emission out over a
// bounded worker group.
func (g *Generator) Run(ctx context.Context) (int, error) {
	interval := g.cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	concurrency := g.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	produced := 0
	for g.cfg.Count == 0 || produced < g.cfg.Count {
		if gctx.Err() != nil {
			break
		}
		ticket := g.GenerateTicket()
		group.Go(func() error {
			return g.Emit(gctx, ticket)
		})
		produced++
		if produced%10 == 0 {
			g.logger.Info("generator progress", "tickets_generated", produced)
		}

		if g.cfg.Count == 0 || produced < g.cfg.Count {
			select {
			case <-gctx.Done():
			case <-time.After(interval):
			}
		}
	}

	err := group.Wait()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return produced, err
}
