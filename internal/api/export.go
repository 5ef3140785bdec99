package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/Tiliavir/punch/internal/model"
)

// directTypes are content types whose body is the file itself.
var directTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/pdf":          true,
	"application/octet-stream": true,
}

type exportEnvelope struct {
	Body            any  `json:"body"`
	IsBase64Encoded bool `json:"isBase64Encoded"`
}

// Export requests a timesheet file for the given range and format.
func (c *Client) Export(ctx context.Context, req model.ExportRequest) (model.ExportFile, error) {
	r, err := c.do(ctx, call{method: http.MethodPost, path: "/export", body: req})
	if err != nil {
		return model.ExportFile{}, err
	}
	f, err := DecodeExport(req, r.header.Get("Content-Type"), r.body)
	if err != nil {
		return model.ExportFile{}, err
	}
	c.log.WithField("bytes", len(f.Data)).Debug("export received")
	return f, nil
}

// DecodeExport turns an export response into file bytes. The server may send
// the file directly, as plain text, or wrapped in a JSON envelope whose body
// is base64 for binary formats.
func DecodeExport(req model.ExportRequest, contentType string, body []byte) (model.ExportFile, error) {
	f := model.ExportFile{Name: req.Filename(), ContentType: exportContentType(req.Format)}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if directTypes[strings.ToLower(mediaType)] {
		f.Data = body
		return f, nil
	}

	if !sonic.Valid(body) {
		f.Data = body
		return f, nil
	}

	var env exportEnvelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return model.ExportFile{}, fmt.Errorf("%w: export: %v", ErrDataShape, err)
	}
	s, ok := env.Body.(string)
	if !ok {
		return model.ExportFile{}, fmt.Errorf("%w: export response has no file body", ErrDataShape)
	}
	if !env.IsBase64Encoded && !req.Format.Binary() {
		f.Data = []byte(s)
		return f, nil
	}
	data, err := decodeBase64(s)
	if err != nil {
		return model.ExportFile{}, fmt.Errorf("%w: export body is not valid base64: %v", ErrDataShape, err)
	}
	f.Data = data
	return f, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

func exportContentType(f model.ExportFormat) string {
	if f == model.ExportPDF {
		return "application/pdf"
	}
	return "text/csv"
}
