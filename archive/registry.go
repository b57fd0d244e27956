package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Registry talks to the Internet Archive metadata and S3 upload APIs.
// Reads fail soft: a transport error during an existence check or metadata
// read is logged and reported as "not archived"/absent, which only ever
// costs re-processing work, never a silent skip.
type Registry struct {
	BaseURL    string // metadata API; default "https://archive.org"
	S3URL      string // upload endpoint; default "https://s3.us.archive.org"
	AccessKey  string
	SecretKey  string
	HTTPClient *http.Client // default client with a long upload-friendly timeout
}

// UploadResult carries the registry's HTTP status for an upload. Only 200
// counts as archived.
type UploadResult struct {
	StatusCode int
}

// ReconcileResult distinguishes "nothing to do" from "update issued".
type ReconcileResult int

const (
	ReconcileNoChange ReconcileResult = iota
	ReconcileUpdated
)

func (r *Registry) base() string {
	if r.BaseURL != "" {
		return r.BaseURL
	}
	return "https://archive.org"
}

func (r *Registry) s3() string {
	if r.S3URL != "" {
		return r.S3URL
	}
	return "https://s3.us.archive.org"
}

func (r *Registry) http() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Minute}
}

// Exists reports whether an identifier is already archived. Transport errors
// are logged and reported as false.
func (r *Registry) Exists(ctx context.Context, identifier string) bool {
	md, err := r.fetchMetadata(ctx, identifier)
	if err != nil {
		slog.Warn("registry existence check failed; treating as absent", slog.String("identifier", identifier), slog.Any("err", err))
		return false
	}
	return md != nil
}

// ReadMetadata returns the stored record, nil when the item is absent or the
// read fails.
func (r *Registry) ReadMetadata(ctx context.Context, identifier string) *Metadata {
	md, err := r.fetchMetadata(ctx, identifier)
	if err != nil {
		slog.Warn("registry metadata read failed", slog.String("identifier", identifier), slog.Any("err", err))
		return nil
	}
	return md
}

// fetchMetadata hits the metadata API. A present item yields a record; an
// absent item yields (nil, nil); transport/decode problems yield an error.
func (r *Registry) fetchMetadata(ctx context.Context, identifier string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.base()+"/metadata/"+url.PathEscape(identifier), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata read: unexpected status %d", resp.StatusCode)
	}
	var body struct {
		Metadata *itemMetadata `json:"metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if body.Metadata == nil {
		// The API answers 200 with an empty object for unknown identifiers.
		return nil, nil
	}
	return body.Metadata.toMetadata(), nil
}

// Reconcile compares the stored record against expected and, on any drift,
// issues a single update carrying the fully-synthesized record. The caller
// treats a returned error as a failed correction, distinct from no-op.
func (r *Registry) Reconcile(ctx context.Context, identifier string, expected Metadata) (ReconcileResult, error) {
	stored, err := r.fetchMetadata(ctx, identifier)
	if err != nil {
		return ReconcileNoChange, fmt.Errorf("read stored metadata: %w", err)
	}
	if stored != nil && stored.Equal(expected) {
		return ReconcileNoChange, nil
	}
	if err := r.updateMetadata(ctx, identifier, expected); err != nil {
		return ReconcileUpdated, err
	}
	return ReconcileUpdated, nil
}

func (r *Registry) updateMetadata(ctx context.Context, identifier string, md Metadata) error {
	patch, err := json.Marshal(md)
	if err != nil {
		return err
	}
	form := url.Values{}
	form.Set("-target", "metadata")
	form.Set("-patch", string(patch))
	form.Set("access", r.AccessKey)
	form.Set("secret", r.SecretKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base()+"/metadata/"+url.PathEscape(identifier), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := r.http().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metadata update: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Upload PUTs the media and chat files under the identifier's bucket. The
// first PUT creates the bucket and carries the x-archive-meta headers. A
// non-200 from the registry is reported in the result, not as an error;
// transport failures are errors. Either way a non-200 means "not archived".
func (r *Registry) Upload(ctx context.Context, identifier, mediaFile, chatFile string, md Metadata) (*UploadResult, error) {
	for _, f := range []string{mediaFile, chatFile} {
		if _, err := os.Stat(f); err != nil {
			return nil, fmt.Errorf("upload file missing: %w", err)
		}
	}
	for i, f := range []string{mediaFile, chatFile} {
		status, err := r.putFile(ctx, identifier, f, md, i == 0)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return &UploadResult{StatusCode: status}, nil
		}
	}
	return &UploadResult{StatusCode: http.StatusOK}, nil
}

func (r *Registry) putFile(ctx context.Context, identifier, path string, md Metadata, withMeta bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close upload file", slog.Any("err", err))
		}
	}()
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.s3()+"/"+url.PathEscape(identifier)+"/"+url.PathEscape(filepath.Base(path)), f)
	if err != nil {
		return 0, err
	}
	req.ContentLength = st.Size()
	req.Header.Set("Authorization", "LOW "+r.AccessKey+":"+r.SecretKey)
	if withMeta {
		req.Header.Set("x-amz-auto-make-bucket", "1")
		for k, v := range metaHeaders(md) {
			req.Header.Set(k, v)
		}
	}
	resp, err := r.http().Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	return resp.StatusCode, nil
}

// metaHeaders renders a record as x-archive-meta headers. Repeated fields use
// the numbered header form; values with characters a header can't carry are
// percent-encoded in the API's uri() wrapper.
func metaHeaders(md Metadata) map[string]string {
	h := map[string]string{
		"x-archive-meta-title":       headerValue(md.Title),
		"x-archive-meta-mediatype":   headerValue(md.Mediatype),
		"x-archive-meta-creator":     headerValue(md.Creator),
		"x-archive-meta-description": headerValue(md.Description),
		"x-archive-meta-date":        headerValue(md.Date),
		"x-archive-meta-language":    headerValue(md.Language),
	}
	for i, s := range md.Subject {
		h[fmt.Sprintf("x-archive-meta%02d-subject", i+1)] = headerValue(s)
	}
	for i, g := range md.Game {
		h[fmt.Sprintf("x-archive-meta%02d-game", i+1)] = headerValue(g)
	}
	return h
}

func headerValue(v string) string {
	if strings.ContainsAny(v, "\r\n") || !isASCII(v) {
		return "uri(" + url.PathEscape(v) + ")"
	}
	return v
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}
