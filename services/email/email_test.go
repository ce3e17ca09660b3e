package emailsvc

import (
	"bytes"
	"encoding/base64"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sajili/core"
	"github.com/trezcool/sajili/services/logger"
)

func TestConsoleService(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewConsoleServiceMock(conf, logsvc.NewTestLogger())
	var out bytes.Buffer
	svc.out = &out

	withAttachment := &core.EmailMessage{
		To:          []mail.Address{{Address: "hod@fcfj.edu.ng"}},
		Subject:     "Attendance report: COM 101",
		TextContent: "see attached",
	}
	require.NoError(t, withAttachment.Attach(strings.NewReader("Matric Number,Name\n"), "COM_101_attendance_report.csv", "text/csv"))

	svc.SendMessages(
		withAttachment,
		&core.EmailMessage{Subject: "no recipient", TextContent: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@b.c"}}, Subject: "no content"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Attendance report: COM 101", sent[0].Subject)

	printed := out.String()
	assert.Contains(t, printed, "Subject: [Sajili] Attendance report: COM 101")
	assert.Contains(t, printed, "multipart/mixed")
	assert.Contains(t, printed, "filename=COM_101_attendance_report.csv")
	assert.Contains(t, printed, base64.StdEncoding.EncodeToString([]byte("Matric Number,Name\n")))
}

func TestSendgridService_prepare(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewSendgridService(conf, logsvc.NewTestLogger())

	msg := core.EmailMessage{
		To:      []mail.Address{{Name: "HOD", Address: "hod@fcfj.edu.ng"}},
		Bcc:     []mail.Address{{Address: "archive@fcfj.edu.ng"}},
		Subject: "Report",
	}
	require.NoError(t, msg.Attach(strings.NewReader("x"), "r.csv", "text/csv"))

	m := svc.prepare(msg)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Sajili] Report", m.Personalizations[0].Subject)
	assert.Equal(t, "hod@fcfj.edu.ng", m.Personalizations[0].To[0].Address)
	assert.Len(t, m.Personalizations[0].BCC, 1)
	assert.Len(t, m.Content, 1)
	require.Len(t, m.Attachments, 1)
	assert.Equal(t, "r.csv", m.Attachments[0].Filename)
	assert.Equal(t, "noreply@sajili.test", m.From.Address)
}
