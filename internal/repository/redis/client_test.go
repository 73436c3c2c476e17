package redis

import (
	"context"
	"testing"
)

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, url := range []string{"", "localhost:6379", "http://localhost:6379/0"} {
		if _, err := NewClient(context.Background(), url); err == nil {
			t.Errorf("Expected an error for %q", url)
		}
	}
}
