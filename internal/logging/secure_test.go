package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// SecureEvent is exercised against a plain zerolog writer; constructing
// a full go-logger would need a log directory on disk.

const testToken = "1234567890:ABCdefGHI_jklMNOpqrSTUvwxYZ-12345678"

const leakMarker = "ABCdefGHI_jkl"

func newBufEvent(buf *bytes.Buffer) *SecureEvent {
	zl := zerolog.New(buf)
	return &SecureEvent{event: zl.Info()}
}

func TestStrRedactsToken(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{
			name:  "plain field passes through",
			key:   "family",
			value: "TypeB",
		},
		{
			name:  "bot token redacted",
			key:   "token",
			value: testToken,
		},
		{
			name:  "token inside delivery detail redacted",
			key:   "detail",
			value: "POST https://api.telegram.org/bot" + testToken + "/sendMessage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newBufEvent(&buf).Str(tt.key, tt.value).Msg("batch report sent")

			if strings.Contains(buf.String(), leakMarker) {
				t.Errorf("Str() leaked token: %s", buf.String())
			}
		})
	}
}

func TestErrRedactsToken(t *testing.T) {
	var buf bytes.Buffer
	deliveryErr := errors.New("send failed for bot" + testToken + ": 429")

	newBufEvent(&buf).Err(deliveryErr).Msg("notification failed")

	if strings.Contains(buf.String(), leakMarker) {
		t.Errorf("Err() leaked token: %s", buf.String())
	}
}

func TestErrNilIsNoop(t *testing.T) {
	var buf bytes.Buffer
	newBufEvent(&buf).Err(nil).Msg("batch complete")

	if strings.Contains(buf.String(), "error") {
		t.Errorf("nil error should add no error field: %s", buf.String())
	}
}

func TestMsgRedactsToken(t *testing.T) {
	var buf bytes.Buffer
	newBufEvent(&buf).Msg("using token " + testToken)

	if strings.Contains(buf.String(), leakMarker) {
		t.Errorf("Msg() leaked token: %s", buf.String())
	}
}

func TestMsgfRedactsStringArgsOnly(t *testing.T) {
	var buf bytes.Buffer
	newBufEvent(&buf).Msgf("token %s, files %d", testToken, 7)
	output := buf.String()

	if strings.Contains(output, leakMarker) {
		t.Errorf("Msgf() leaked token: %s", output)
	}
	if !strings.Contains(output, "7") {
		t.Errorf("Msgf() should keep non-string args: %s", output)
	}
}

func TestInterfaceSanitizesStrings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
		want  string
	}{
		{
			name:  "string value redacted",
			key:   "data",
			value: testToken,
		},
		{
			name:  "numeric value kept",
			key:   "sensor_id",
			value: 128,
			want:  "128",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newBufEvent(&buf).Interface(tt.key, tt.value).Msg("inspect")
			output := buf.String()

			if strings.Contains(output, leakMarker) {
				t.Errorf("Interface() leaked token: %s", output)
			}
			if tt.want != "" && !strings.Contains(output, tt.want) {
				t.Errorf("Interface() output %q missing %q", output, tt.want)
			}
		})
	}
}

func TestChainedFieldsSurviveRedaction(t *testing.T) {
	var buf bytes.Buffer
	newBufEvent(&buf).
		Str("token", testToken).
		Int("success", 10).
		Int64("bytes", 2048).
		Float64("elapsed", 3.5).
		Bool("recursive", true).
		Msg("batch summary")
	output := buf.String()

	if strings.Contains(output, leakMarker) {
		t.Errorf("chained output leaked token: %s", output)
	}
	for _, want := range []string{"10", "2048", "3.5", "true"} {
		if !strings.Contains(output, want) {
			t.Errorf("chained output %q missing %q", output, want)
		}
	}
}

func TestAllLevelsRedact(t *testing.T) {
	levels := map[string]func(*zerolog.Logger) *zerolog.Event{
		"debug": (*zerolog.Logger).Debug,
		"info":  (*zerolog.Logger).Info,
		"warn":  (*zerolog.Logger).Warn,
		"error": (*zerolog.Logger).Error,
	}

	for name, start := range levels {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			zl := zerolog.New(&buf)
			event := &SecureEvent{event: start(&zl)}

			event.Str("token", testToken).Msg("level check")

			if strings.Contains(buf.String(), leakMarker) {
				t.Errorf("%s level leaked token", name)
			}
		})
	}
}
