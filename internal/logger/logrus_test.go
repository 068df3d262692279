package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogrusLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	l := newLogrusLogger(LogrusConfig{Structured: true, Level: logrus.DebugLevel}, buf)

	l.WithFields("source", "source:nvd:cve:2019", "count", 3).Info("processed feed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "processed feed", entry["msg"])
	assert.Equal(t, "source:nvd:cve:2019", entry["source"])
	assert.Equal(t, float64(3), entry["count"])
}

func TestLogrusLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	l := newLogrusLogger(LogrusConfig{Structured: true, Level: logrus.WarnLevel}, buf)

	l.Debugf("hidden %d", 1)
	l.Infof("hidden %d", 2)
	assert.Empty(t, buf.String())

	l.Warnf("shown %d", 3)
	assert.Contains(t, buf.String(), "shown 3")
}

func TestGetFields(t *testing.T) {
	tests := []struct {
		name   string
		fields []interface{}
		want   logrus.Fields
	}{
		{
			name:   "pairs",
			fields: []interface{}{"a", 1, "b", "two"},
			want:   logrus.Fields{"a": 1, "b": "two"},
		},
		{
			name:   "dangling key",
			fields: []interface{}{"a", 1, "b"},
			want:   logrus.Fields{"a": 1, "b": ""},
		},
		{
			name: "empty",
			want: logrus.Fields{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, getFields(test.fields...))
		})
	}
}
