package service

import (
	"errors"
	"io"
	"strings"

	"kenhavate/internal/models"

	"github.com/gabriel-vasile/mimetype"
)

// AttachmentInput is an uploaded file. Bytes are stored as-is; MIME and size
// policy is the caller's concern.
type AttachmentInput struct {
	Filename string
	MimeType string
	Reader   io.Reader
}

type attachment struct {
	data     []byte
	filename string
	mime     string
	size     int64
}

// readAttachment drains the upload. Any read failure is an AttachmentError.
// The MIME type is sniffed only when the client did not send one.
func readAttachment(in *AttachmentInput) (*attachment, error) {
	if in == nil {
		return nil, nil
	}
	if in.Reader == nil {
		return nil, models.NewAttachmentError(errors.New("attachment has no content"))
	}

	data, err := io.ReadAll(in.Reader)
	if err != nil {
		return nil, models.NewAttachmentError(err)
	}

	mime := strings.TrimSpace(in.MimeType)
	if mime == "" {
		mime = mimetype.Detect(data).String()
	}

	return &attachment{
		data:     data,
		filename: strings.TrimSpace(in.Filename),
		mime:     mime,
		size:     int64(len(data)),
	}, nil
}

func (a *attachment) applyTo(idea *models.Idea) {
	if a == nil {
		return
	}
	idea.AttachmentData = a.data
	idea.AttachmentFilename = a.filename
	idea.AttachmentMime = a.mime
	idea.AttachmentSize = a.size
}
