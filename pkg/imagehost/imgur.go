package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-productform/pkg/fetchjson"
)

// DefaultImgurEndpoint is the public imgur upload endpoint.
const DefaultImgurEndpoint = "https://api.imgur.com/3/image"

// ImgurOption configures an Imgur uploader.
type ImgurOption func(*Imgur)

// WithEndpoint overrides the upload endpoint.
func WithEndpoint(endpoint string) ImgurOption {
	return func(i *Imgur) {
		if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
			i.endpoint = trimmed
		}
	}
}

// WithClientID sets the application id sent as "Authorization: Client-ID".
func WithClientID(id string) ImgurOption {
	return func(i *Imgur) {
		i.clientID = strings.TrimSpace(id)
	}
}

// WithClient sets the JSON client used for the request.
func WithClient(client *fetchjson.Client) ImgurOption {
	return func(i *Imgur) {
		if client != nil {
			i.client = client
		}
	}
}

// WithImgurLogger sets the logger.
func WithImgurLogger(logger *zap.Logger) ImgurOption {
	return func(i *Imgur) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// Imgur posts images to an imgur compatible endpoint as multipart field
// "image" and reads the hosted link from data.link.
type Imgur struct {
	endpoint string
	clientID string
	client   *fetchjson.Client
	logger   *zap.Logger
}

// NewImgur constructs an Imgur uploader.
func NewImgur(options ...ImgurOption) *Imgur {
	i := &Imgur{
		endpoint: DefaultImgurEndpoint,
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(i)
	}
	if i.client == nil {
		i.client = fetchjson.New(fetchjson.WithLogger(i.logger))
	}
	return i
}

type imgurResponse struct {
	Data struct {
		ID         string `json:"id"`
		Link       string `json:"link"`
		DeleteHash string `json:"deletehash"`
		Error      any    `json:"error"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// Upload implements Uploader.
func (i *Imgur) Upload(ctx context.Context, file File) (Result, error) {
	file, err := validate(file)
	if err != nil {
		return Result{}, err
	}

	body, contentType, err := multipartBody("image", file)
	if err != nil {
		return Result{}, err
	}

	header := make(http.Header)
	header.Set("Content-Type", contentType)
	if i.clientID != "" {
		header.Set("Authorization", "Client-ID "+i.clientID)
	}

	var resp imgurResponse
	if err := i.client.Do(ctx, fetchjson.Request{
		Method: http.MethodPost,
		URL:    i.endpoint,
		Header: header,
		Body:   body,
	}, &resp); err != nil {
		return Result{}, fmt.Errorf("imagehost: imgur upload: %w", err)
	}

	link := strings.TrimSpace(resp.Data.Link)
	if link == "" {
		return Result{}, errors.New("imagehost: imgur response has no data.link")
	}

	i.logger.Info("image uploaded",
		zap.String("provider", "imgur"),
		zap.String("file", file.Name),
		zap.String("link", link))

	return Result{Link: link, Key: resp.Data.ID}, nil
}

func multipartBody(field string, file File) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, file.Name))
	h.Set("Content-Type", file.ContentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("imagehost: multipart: %w", err)
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return nil, "", fmt.Errorf("imagehost: read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("imagehost: multipart: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
