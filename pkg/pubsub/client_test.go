package pubsub

import (
	"context"
	"testing"

	"github.com/sweetdelights/bakery-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	cases := []struct {
		name, project, kind, in, want string
	}{
		{"short subscription", "bakery", "subscriptions", "sd-notifications-sub", "projects/bakery/subscriptions/sd-notifications-sub"},
		{"full subscription", "bakery", "subscriptions", "projects/other/subscriptions/x", "projects/other/subscriptions/x"},
		{"short topic", "bakery", "topics", " domain ", "projects/bakery/topics/domain"},
		{"topic name for subscription kind", "bakery", "subscriptions", "projects/other/topics/x", "projects/bakery/subscriptions/projects/other/topics/x"},
		{"blank", "bakery", "topics", "  ", ""},
		{"no project", "", "topics", "domain", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resourceName(tc.project, tc.kind, tc.in); got != tc.want {
				t.Fatalf("resourceName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	names := subscriptionNames(config.PubSubConfig{NotificationSubscription: "notify", AnalyticsSubscription: " "})
	if len(names) != 1 || names[0] != "notify" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestNilClientGuards(t *testing.T) {
	var c *Client
	if c.Subscription("x") != nil || c.Publisher("x") != nil {
		t.Fatal("nil client must return nil handles")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error on nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, nil); err != errProjectIDRequired {
		t.Fatalf("expected errProjectIDRequired, got %v", err)
	}
}
