package textutil

import (
	"reflect"
	"testing"
)

func TestCompactStringMap(t *testing.T) {
	got := CompactStringMap(map[string]string{
		" leadId ":  " lead-1 ",
		"industry":  "   ",
		"   ":       "orphan",
		"eventType": "vip.assets.ready",
	})
	want := map[string]string{"leadId": "lead-1", "eventType": "vip.assets.ready"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCompactStringMapEmpty(t *testing.T) {
	if got := CompactStringMap(nil); got != nil {
		t.Fatalf("expected nil for nil input, got %v", got)
	}
	if got := CompactStringMap(map[string]string{"a": " "}); got != nil {
		t.Fatalf("expected nil when every value is blank, got %v", got)
	}
}
