package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/tradehub/internal/config"
)

func TestResetMessage(t *testing.T) {
	subject, text := resetMessage("Ada", "https://app.example.com/reset?token=abc")
	require.Equal(t, "Reset your TradeHub password", subject)
	require.Contains(t, text, "Hi Ada,")
	require.Contains(t, text, "https://app.example.com/reset?token=abc")

	_, text = resetMessage("", "x")
	require.Contains(t, text, "Hi there,")
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer("http://localhost:3000/reset-password?token=", zerolog.New(&buf))

	require.NoError(t, m.SendPasswordReset(context.Background(), "ada@example.com", "Ada", "tok123"))
	require.Contains(t, buf.String(), `"to":"ada@example.com"`)
	require.Contains(t, buf.String(), "reset-password?token=tok123")
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.MailConfig
		wantType any
		wantErr  bool
	}{
		{name: "default", cfg: config.MailConfig{}, wantType: &LogMailer{}},
		{name: "log", cfg: config.MailConfig{Provider: "log"}, wantType: &LogMailer{}},
		{name: "mailgun", cfg: config.MailConfig{Provider: "mailgun", Domain: "mg.example.com", APIKey: "key"}, wantType: &MailgunMailer{}},
		{name: "unknown", cfg: config.MailConfig{Provider: "smtp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.cfg, zerolog.Nop())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.IsType(t, tt.wantType, m)
		})
	}
}
