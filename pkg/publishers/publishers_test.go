package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestLoadRegistryEnabledFilter(t *testing.T) {
	path := writeFile(t, "publishers.yaml", `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: queue
    type: SQS
    sqs:
      uri: https://sqs.eu-west-1.amazonaws.com/123/analyses
      region: eu-west-1
  - id: topic
    type: sns
    sns:
      topic_arn: arn:aws:sns:eu-west-1:123:analyses
      region: eu-west-1
      endpoint: http://localhost:4566
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "queue" || enabled[1].ID != "topic" {
		t.Fatalf("unexpected enabled set %#v", enabled)
	}
	if enabled[0].Type != TypeSQS {
		t.Fatalf("type should be lower-cased, got %q", enabled[0].Type)
	}
	topic, ok := reg.ByID("topic")
	if !ok || topic.SNS.Endpoint != "http://localhost:4566" || topic.SNS.Region != "eu-west-1" {
		t.Fatalf("inline aws settings not decoded: %#v", topic.SNS)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeFile(t, "publishers.json", `{"publishers":[
		{"id":"gcp","type":"pubsub","pubsub":{"project_id":"p","topic":"t"}},
		{"id":"hook","type":"http","http":{"url":"https://example.com"}}
	]}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	hook, ok := reg.ByID("hook")
	if !ok {
		t.Fatalf("hook missing")
	}
	if hook.HTTP.Method != "POST" || hook.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("http defaults not applied: %#v", hook.HTTP)
	}
}

func TestLoadRegistryRejectsDuplicates(t *testing.T) {
	path := writeFile(t, "publishers.yml", `
publishers:
  - id: hook
    type: http
    http: {url: "https://a.example.com"}
  - id: hook
    type: http
    http: {url: "https://b.example.com"}
`)
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestLoadRegistryRejectsEmpty(t *testing.T) {
	if _, err := LoadRegistry(writeFile(t, "p.yaml", "publishers: []\n")); err == nil {
		t.Fatalf("expected error for empty registry")
	}
	if _, err := LoadRegistry(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestValidatePublisherConfig(t *testing.T) {
	cases := map[string]PublisherConfig{
		"missing http block":   {ID: "h1", Type: TypeHTTP},
		"missing sqs region":   {ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "u"}},
		"missing sns topic":    {ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{AWSConfig: AWSConfig{Region: "r"}}},
		"half static keys":     {ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{TopicARN: "a", AWSConfig: AWSConfig{Region: "r", AccessKeyID: "k"}}},
		"missing pubsub topic": {ID: "p", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "p"}},
		"missing id":           {Type: TypeHTTP},
	}
	for name, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestFingerprintSeparatesLanguage(t *testing.T) {
	if Fingerprint("go", "x") == Fingerprint("python", "x") {
		t.Fatalf("fingerprint should depend on language")
	}
	if Fingerprint("go", "x") != Fingerprint("go", "x") {
		t.Fatalf("fingerprint should be stable")
	}
}
