package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/QTest-hq/riskgen/internal/risk"
)

func TestClient_NilState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should return false for nil connection")
	}

	if client.JetStream() != nil {
		t.Error("JetStream() should return nil")
	}

	if _, err := client.CreateStream(context.Background(), DefaultStreamConfig()); err == nil {
		t.Error("CreateStream() should fail without a connection")
	}

	if _, err := client.PublishMsg(context.Background(), nats.NewMsg(SubjectTestCases)); err == nil {
		t.Error("PublishMsg() should fail without a connection")
	}

	client.Close()
	client.Close()
}

func TestDefaultStreamConfig(t *testing.T) {
	cfg := DefaultStreamConfig()

	if cfg.Name != StreamArtifacts {
		t.Errorf("Name = %s, want %s", cfg.Name, StreamArtifacts)
	}
	if len(cfg.Subjects) != 1 || cfg.Subjects[0] != SubjectArtifactsAll {
		t.Errorf("Subjects = %v, want [%s]", cfg.Subjects, SubjectArtifactsAll)
	}
	if cfg.MaxAge != 30*24*time.Hour {
		t.Errorf("MaxAge = %v, want 30 days", cfg.MaxAge)
	}
}

func TestArtifactMsg(t *testing.T) {
	records := []risk.Record{{Method: "GET", URL: "/a", RiskScore: 0.9}}

	msg, err := artifactMsg(SubjectPriorities, "run-7", records)
	if err != nil {
		t.Fatalf("artifactMsg() error = %v", err)
	}

	if msg.Subject != SubjectPriorities {
		t.Errorf("Subject = %s, want %s", msg.Subject, SubjectPriorities)
	}
	if got := msg.Header.Get(HeaderRunID); got != "run-7" {
		t.Errorf("%s header = %s, want run-7", HeaderRunID, got)
	}
	if got := msg.Header.Get(nats.MsgIdHdr); got != "riskgen.priorities-run-7" {
		t.Errorf("dedup id = %s", got)
	}

	var decoded []risk.Record
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0] != records[0] {
		t.Errorf("decoded = %v, want %v", decoded, records)
	}
}

func TestArtifactMsg_Unencodable(t *testing.T) {
	if _, err := artifactMsg(SubjectTestCases, "run", make(chan int)); err == nil {
		t.Error("artifactMsg() should fail for values JSON cannot encode")
	}
}
