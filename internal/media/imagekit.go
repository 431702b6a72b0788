// AngelaMos | 2026
// imagekit.go

package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/carterperez-dev/templates/qa-backend/internal/config"
)

// ImageKit uploads through the ImageKit upload API.
type ImageKit struct {
	cfg    config.ImageKitConfig
	client *http.Client
	logger *slog.Logger
}

func NewImageKit(cfg config.ImageKitConfig, logger *slog.Logger) *ImageKit {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageKit{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// NewUploader picks ImageKit when credentials are present.
func NewUploader(cfg config.ImageKitConfig, logger *slog.Logger) Uploader {
	if !cfg.Enabled() {
		return NoopUploader{}
	}
	return NewImageKit(cfg, logger)
}

type uploadResponse struct {
	FileID  string `json:"fileId"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

func (k *ImageKit) Upload(ctx context.Context, source, fileName string) (string, error) {
	if isRemoteURL(source) {
		return source, nil
	}

	raw, err := decodePayload(source)
	if err != nil {
		return "", err
	}

	img, err := downscale(raw, k.cfg.MaxWidth)
	if err != nil {
		return "", err
	}

	fullName := fileName + "." + img.extension

	body, contentType, err := buildUploadForm(img.data, fullName, k.cfg.Folder)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.cfg.UploadURL, body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(k.cfg.PrivateKey, "")

	resp, err := k.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}

	var out uploadResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || out.URL == "" {
		return "", fmt.Errorf(
			"upload image: status %d: %s",
			resp.StatusCode,
			out.Message,
		)
	}

	k.logger.DebugContext(ctx, "image uploaded",
		"file_id", out.FileID,
		"name", out.Name,
		"bytes", len(img.data),
	)

	return out.URL, nil
}

func buildUploadForm(data []byte, fileName, folder string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}

	fields := map[string]string{
		"fileName":          fileName,
		"useUniqueFileName": "true",
	}
	if folder != "" {
		fields["folder"] = folder
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
