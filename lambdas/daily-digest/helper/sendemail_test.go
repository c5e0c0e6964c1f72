package helper

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	raw [][]byte
	err error
}

func (f *fakeSES) SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.raw = append(f.raw, params.RawMessage.Data)
	return &ses.SendRawEmailOutput{MessageId: aws.String("msg-1")}, nil
}

type parsedEmail struct {
	header      mail.Header
	text        string
	html        string
	attachments map[string][]byte
}

func parseEmail(t *testing.T, raw []byte) parsedEmail {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)

	out := parsedEmail{header: msg.Header, attachments: map[string][]byte{}}
	mr := multipart.NewReader(msg.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		partType, partParams, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		require.NoError(t, err)
		if partType == "multipart/alternative" {
			ar := multipart.NewReader(part, partParams["boundary"])
			for {
				alt, err := ar.NextPart()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				body, err := io.ReadAll(alt)
				require.NoError(t, err)
				body = []byte(strings.ReplaceAll(string(body), "\r\n", "\n"))
				if strings.HasPrefix(alt.Header.Get("Content-Type"), "text/html") {
					out.html = string(body)
				} else {
					out.text = string(body)
				}
			}
			continue
		}

		content, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, part))
		require.NoError(t, err)
		out.attachments[part.FileName()] = content
	}
	return out
}

func TestBuildEmailBuffer(t *testing.T) {
	content := []byte(strings.Repeat("spreadsheet bytes ", 20))
	buf, err := BuildEmailBuffer(&EmailInfo{
		From:    "reports@example.com",
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "Shift report 2024-03-01",
		Text:    "Day shift\n  Late: Bob, 10 minutes",
		HTML:    "<pre>Day shift</pre>",
		Attachments: []Attachment{{
			Filename:    "report.xlsx",
			ContentType: "application/octet-stream",
			Content:     content,
		}},
	})
	require.NoError(t, err)

	email := parseEmail(t, buf.Bytes())
	assert.Equal(t, "reports@example.com", email.header.Get("From"))
	assert.Equal(t, "a@example.com, b@example.com", email.header.Get("To"))
	assert.Equal(t, "Shift report 2024-03-01", email.header.Get("Subject"))
	assert.Equal(t, "Day shift\n  Late: Bob, 10 minutes", email.text)
	assert.Equal(t, "<pre>Day shift</pre>", email.html)
	assert.Equal(t, content, email.attachments["report.xlsx"])
}

func TestBuildEmailBufferRequiresAddresses(t *testing.T) {
	_, err := BuildEmailBuffer(&EmailInfo{From: "reports@example.com"})
	assert.Error(t, err)

	_, err = BuildEmailBuffer(&EmailInfo{To: []string{"a@example.com"}})
	assert.Error(t, err)
}

func TestSendEmail(t *testing.T) {
	client := &fakeSES{}
	id, err := SendEmail(context.Background(), client, &EmailInfo{
		From: "reports@example.com",
		To:   []string{"a@example.com"},
		Text: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	require.Len(t, client.raw, 1)
	assert.Equal(t, "hello", parseEmail(t, client.raw[0]).text)

	_, err = SendEmail(context.Background(), &fakeSES{err: errors.New("throttled")}, &EmailInfo{
		From: "reports@example.com",
		To:   []string{"a@example.com"},
	})
	assert.ErrorContains(t, err, "throttled")
}
