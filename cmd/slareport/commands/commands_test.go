package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-reporting/internal/auth"
	"github.com/spec-kit/sla-reporting/internal/domain"
	"github.com/spec-kit/sla-reporting/internal/report"
)

func TestResolveWindow(t *testing.T) {
	now := time.Date(2026, 3, 9, 6, 0, 0, 0, time.UTC)

	w, err := resolveWindow("", "", now)
	require.NoError(t, err)
	assert.Equal(t, domain.WeeklyWindow(now), w)

	w, err = resolveWindow("2026-03-01", "2026-03-02T12:00:00+02:00", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), w.End)

	_, err = resolveWindow("2026-03-01", "", now)
	assert.Error(t, err)
	_, err = resolveWindow("2026-03-02", "2026-03-01", now)
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
}

func TestWriteReport(t *testing.T) {
	doc := report.Document{Text: "plain", HTML: "<p>html</p>"}
	r := domain.ComplianceReport{TotalTickets: 4}

	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, "json", r, doc))
	assert.Contains(t, buf.String(), `"total_tickets": 4`)

	buf.Reset()
	require.NoError(t, writeReport(&buf, "html", r, doc))
	assert.Equal(t, "<p>html</p>", buf.String())

	buf.Reset()
	require.NoError(t, writeReport(&buf, "text", r, doc))
	assert.Equal(t, "plain", buf.String())

	assert.Error(t, validateFormat("pdf"))
}

func TestHashSecretCmd(t *testing.T) {
	cmd := newHashSecretCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--cost", "4", "s3cret"})

	require.NoError(t, cmd.Execute())
	hash := strings.TrimSpace(out.String())
	assert.NoError(t, auth.ComparePassword(hash, "s3cret"))
}
