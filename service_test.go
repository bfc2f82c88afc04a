package oversight

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/oversight/engine"
	"github.com/viant/oversight/gate"
	"github.com/viant/oversight/model/approval"
)

func TestService_GatedOperation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := DefaultConfig()
	config.Engine.DefaultTimeout = 5 * time.Second
	srv, err := New(WithConfig(config))
	assert.NoError(t, err)

	stop := engine.AutoApprove(ctx, srv.Engine(), "ops@x.com", 5*time.Millisecond)
	defer stop()

	refund := NewGate(srv, gate.Config{
		AgentName:         "BillingAgent",
		ActionDescription: "Issue refund",
		ApproverEmails:    []string{"ops@x.com"},
	}, gate.DefaultRefusal, func(ctx context.Context, orderID string) (string, error) {
		return "refunded " + orderID, nil
	})

	output, err := refund.Run(ctx, "o-1")
	assert.NoError(t, err)
	assert.Equal(t, "refunded o-1", output)

	records, err := srv.Audit().List(ctx)
	assert.NoError(t, err)
	if assert.Len(t, records, 1) {
		assert.Equal(t, approval.StatusApproved, records[0].Status)
		assert.Equal(t, "ops@x.com", records[0].Approver)
	}
}

func TestService_TimeoutRefuses(t *testing.T) {
	config := DefaultConfig()
	config.Engine.DefaultTimeout = 30 * time.Millisecond
	srv, err := New(WithConfig(config))
	assert.NoError(t, err)

	refund := NewGate(srv, gate.Config{
		AgentName:         "BillingAgent",
		ActionDescription: "Issue refund",
		ApproverEmails:    []string{"ops@x.com"},
	}, gate.DefaultRefusal, func(ctx context.Context, orderID string) (string, error) {
		return "refunded " + orderID, nil
	})

	output, err := refund.Run(context.Background(), "o-2")
	assert.NoError(t, err)
	assert.Equal(t, gate.DefaultRefusal, output)
}

func TestConfig_Validate(t *testing.T) {
	type testCase struct {
		name        string
		config      *Config
		expectError bool
	}

	tests := []testCase{
		{name: "nil config", config: nil},
		{name: "defaults", config: DefaultConfig()},
		{name: "fs vendor without baseURL", config: &Config{Audit: AuditConfig{Vendor: AuditFs}}, expectError: true},
		{name: "sqlite vendor without dsn", config: &Config{Audit: AuditConfig{Vendor: AuditSQLite}}, expectError: true},
		{name: "unknown audit vendor", config: &Config{Audit: AuditConfig{Vendor: "etcd"}}, expectError: true},
		{name: "webhook without url", config: &Config{Notifier: NotifierConfig{Vendor: NotifierWebhook}}, expectError: true},
		{name: "unknown notifier vendor", config: &Config{Notifier: NotifierConfig{Vendor: "carrier-pigeon"}}, expectError: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	ctx := context.Background()
	location := filepath.Join(t.TempDir(), "config.yaml")
	content := `
engine:
  defaultTimeout: 45s
audit:
  vendor: fs
  baseURL: ` + filepath.Join(t.TempDir(), "audit") + `
policy:
  mode: ask
  block:
    - RiskyAgent
`
	assert.NoError(t, os.WriteFile(location, []byte(content), 0o644))

	config, err := LoadConfig(ctx, location)
	assert.NoError(t, err)
	assert.Equal(t, 45*time.Second, config.Engine.DefaultTimeout)
	assert.Equal(t, AuditFs, config.Audit.Vendor)
	assert.Equal(t, ":8711", config.HTTP.Addr, "unset fields keep defaults")
	if assert.NotNil(t, config.Policy) {
		assert.Equal(t, []string{"RiskyAgent"}, config.Policy.BlockList)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	ctx := context.Background()
	location := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(location, []byte("audit:\n  vendor: etcd\n"), 0o644))

	_, err := LoadConfig(ctx, location)
	assert.Error(t, err)
}

func TestService_SQLiteAudit(t *testing.T) {
	config := DefaultConfig()
	config.Engine.DefaultTimeout = 30 * time.Millisecond
	config.Audit = AuditConfig{Vendor: AuditSQLite, DSN: ":memory:"}
	srv, err := New(WithConfig(config))
	assert.NoError(t, err)

	response, err := srv.Submit(context.Background(), &approval.Request{
		AgentName:         "BillingAgent",
		ActionDescription: "Issue refund",
		ApproverEmails:    []string{"ops@x.com"},
	})
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusTimeout, response.Status)

	records, err := srv.Audit().List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, records, 1)
}
