package api

import (
	"reflect"
	"testing"
)

func TestParseKafkaBrokers(t *testing.T) {
	cases := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"broker1:9092", []string{"broker1:9092"}},
		{"broker1:9092,broker2:9092", []string{"broker1:9092", "broker2:9092"}},
		{"broker1:9092, broker2:9092 ,", []string{"broker1:9092", "broker2:9092"}},
	}

	for _, tc := range cases {
		got := ParseKafkaBrokers(tc.input)
		if len(got) == 0 && len(tc.expected) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.expected) {
			t.Errorf("ParseKafkaBrokers(%q): expected %v, got %v", tc.input, tc.expected, got)
		}
	}
}

func TestCreateKafkaDialerPlain(t *testing.T) {
	dialer := CreateKafkaDialer("", "", "")
	if dialer.SASLMechanism != nil {
		t.Error("expected no SASL mechanism without credentials")
	}
	if dialer.TLS != nil {
		t.Error("expected no TLS without credentials or CA cert")
	}
}

func TestCreateKafkaDialerSASL(t *testing.T) {
	dialer := CreateKafkaDialer("user", "pass", "")
	if dialer.SASLMechanism == nil {
		t.Error("expected SASL mechanism with credentials")
	}
	if dialer.TLS == nil {
		t.Error("expected TLS to be enabled alongside SASL")
	}
}
